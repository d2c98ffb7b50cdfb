// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/orchestrator"
)

// DefaultMaxBodyBytes is used when the server config leaves the limit unset.
const DefaultMaxBodyBytes int64 = 32 << 20

// errBodyTooLarge marks a request body over the configured limit.
var errBodyTooLarge = errors.New("request body too large")

// readBody reads the whole request body under the size limit.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("request body is empty")
	}
	return body, nil
}

// decodeJSON reads and decodes the request body into v. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := h.readBody(w, r)
	if err != nil {
		h.respondBodyError(w, r, err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.respondBodyError(w, r, fmt.Errorf("invalid JSON: %w", err))
		return false
	}
	return true
}

// readJSONObject reads a body that must be a JSON object and returns it
// untouched.
func (h *Handler) readJSONObject(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.respondBodyError(w, r, err)
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		h.respondBodyError(w, r, fmt.Errorf("invalid JSON: %w", err))
		return nil, false
	}
	return json.RawMessage(body), true
}

func (h *Handler) respondBodyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, r, http.StatusRequestEntityTooLarge, string(orchestrator.TypeValidation),
			fmt.Sprintf("request body exceeds %d bytes", h.maxBodyBytes), nil)
		return
	}
	respondError(w, r, http.StatusBadRequest, string(orchestrator.TypeValidation), err.Error(), nil)
}
