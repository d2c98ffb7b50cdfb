// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"net/http"

	"github.com/tomtom215/daylight-gateway/internal/models"
)

// Run godoc
// @Summary Run a daylight simulation
// @Description Computes obstruction angles, encodes and simulates every window concurrently, then merges the per-window results over the room polygon
// @Tags Simulation
// @Accept json
// @Produce json
// @Param request body models.SimulationRequest true "Room, windows and obstruction mesh"
// @Success 200 {object} SuccessResponse{result=models.MergedResult}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/run [post]
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.runner.Run(r.Context(), &req)
	if err != nil {
		respondOrchestrationError(w, r, err)
		return
	}
	respondSuccess(w, result)
}

// Encode godoc
// @Summary Encode one window
// @Description Runs obstruction and encoding for a single window and returns the encoder's opaque payload
// @Tags Simulation
// @Accept json
// @Produce octet-stream
// @Param window query string false "Window name; optional when the request has one window"
// @Param request body models.SimulationRequest true "Room, windows and obstruction mesh"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/encode [post]
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	payload, err := h.runner.EncodeWindow(r.Context(), &req, r.URL.Query().Get("window"))
	if err != nil {
		respondOrchestrationError(w, r, err)
		return
	}
	respondRaw(w, payload.ContentType, payload.Data)
}
