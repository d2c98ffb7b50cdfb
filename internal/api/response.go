// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/auth"
	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/orchestrator"
)

// SuccessResponse wraps a successful result.
type SuccessResponse struct {
	Status string      `json:"status" example:"success"`
	Result interface{} `json:"result"`
}

// ErrorResponse is the error envelope shared by every route.
type ErrorResponse struct {
	Status    string `json:"status" example:"error"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty" example:"UPSTREAM_ERROR"`
	Window    string `json:"window,omitempty"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status   string `json:"status" example:"running"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	AuthMode string `json:"auth_mode"`
}

// respondJSON writes v as JSON.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, result interface{}) {
	respondJSON(w, http.StatusOK, &SuccessResponse{Status: "success", Result: result})
}

// respondRaw writes an upstream body unchanged.
func respondRaw(w http.ResponseWriter, contentType string, body []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write response body")
	}
}

// respondError sends the error envelope. err, when set, is logged with the
// request's correlation fields.
func respondError(w http.ResponseWriter, r *http.Request, status int, errType, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("error_type", errType).
			Int("status", status).
			Str("error", logging.SanitizeValue(err.Error(), 512)).
			Msg("API error")
	}

	respondJSON(w, status, &ErrorResponse{
		Status:    "error",
		Error:     message,
		ErrorType: errType,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// respondOrchestrationError maps an orchestration or remote failure onto the
// envelope, carrying window and stage when the failure came from a pipeline.
func respondOrchestrationError(w http.ResponseWriter, r *http.Request, err error) {
	oe, ok := orchestrator.AsError(err)
	if !ok {
		oe = orchestrator.FromRemoteError(err, "", "")
	}

	logging.Ctx(r.Context()).Warn().
		Str("error_type", string(oe.Type)).
		Str("window", oe.Window).
		Str("stage", oe.Stage).
		Str("error", logging.SanitizeValue(oe.Error(), 512)).
		Msg("Request failed")

	respondJSON(w, oe.HTTPStatus(), &ErrorResponse{
		Status:    "error",
		Error:     oe.Error(),
		ErrorType: string(oe.Type),
		Window:    oe.Window,
		Stage:     oe.Stage,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// respondAuthError is the auth.ErrorResponder for protected routes. The
// client sees only the sentinel message, never parser detail.
func respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	respondJSON(w, auth.HTTPStatus(err), &ErrorResponse{
		Status:    "error",
		Error:     auth.PublicMessage(err),
		ErrorType: auth.ErrorType(err),
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
