// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string  `json:"status" example:"healthy"`
	Uptime float64 `json:"uptime_seconds"`
}

// Status godoc
// @Summary Gateway status
// @Description Returns the service name, version and active auth mode
// @Tags Core
// @Produce json
// @Success 200 {object} StatusResponse
// @Router / [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &StatusResponse{
		Status:   "running",
		Service:  "daylight-gateway",
		Version:  h.version,
		AuthMode: h.authMode,
	})
}

// Health godoc
// @Summary Liveness check
// @Description Always healthy while the process serves requests; remote services are not probed
// @Tags Core
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}
