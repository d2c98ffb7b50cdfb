// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/orchestrator"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

// forward relays body to one remote endpoint and writes the upstream body
// back unchanged on success.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, service, endpoint string, body json.RawMessage, kind remote.ContentKind) {
	resp, err := h.forwarder.Forward(r.Context(), service, endpoint, body, kind)
	if err != nil {
		respondOrchestrationError(w, r, orchestrator.FromRemoteError(err, "", service))
		return
	}
	respondRaw(w, resp.ContentType, resp.Body)
}

func (h *Handler) forwardJSON(w http.ResponseWriter, r *http.Request, service, endpoint string, kind remote.ContentKind) {
	body, ok := h.readJSONObject(w, r)
	if !ok {
		return
	}
	h.forward(w, r, service, endpoint, body, kind)
}

// EncodeRaw godoc
// @Summary Forward to the encoder
// @Description Single-hop forward of an encode request; returns the encoder's binary payload
// @Tags Stages
// @Accept json
// @Produce octet-stream
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/encode_raw [post]
func (h *Handler) EncodeRaw(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, config.ServiceEncoder, remote.EndpointEncode, remote.ContentBinary)
}

// Obstruction godoc
// @Summary Compute obstruction angles
// @Description Forwards to the obstruction service. A window's corners (x1..z2) may be sent instead of x, y, z; the midpoint is used. Sweep parameters default to 17.5..162.5 degrees over 64 directions.
// @Tags Stages
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/obstruction [post]
func (h *Handler) Obstruction(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if !h.decodeJSON(w, r, &fields) {
		return
	}
	if err := fillObstructionDefaults(fields); err != nil {
		respondError(w, r, http.StatusBadRequest, string(orchestrator.TypeValidation), err.Error(), nil)
		return
	}

	body, err := json.Marshal(fields)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, string(orchestrator.TypeInternal), "failed to encode request", err)
		return
	}
	h.forward(w, r, config.ServiceObstruction, remote.EndpointObstruction, body, remote.ContentJSON)
}

// CalculateDirection godoc
// @Summary Forward a direction-angle query
// @Tags Stages
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/calculate-direction [post]
func (h *Handler) CalculateDirection(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, config.ServiceEncoder, remote.EndpointCalculateDirection, remote.ContentJSON)
}

// ReferencePoint godoc
// @Summary Forward a reference-point query
// @Tags Stages
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/get-reference-point [post]
func (h *Handler) ReferencePoint(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, config.ServiceEncoder, remote.EndpointReferencePoint, remote.ContentJSON)
}

// Merge godoc
// @Summary Forward to the merger
// @Tags Stages
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/merge [post]
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, config.ServiceMerger, remote.EndpointMerge, remote.ContentJSON)
}

// Stats godoc
// @Summary Forward to the statistics service
// @Tags Stages
// @Accept json
// @Produce json
// @Success 200 {object} object
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/stats [post]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, config.ServiceStats, remote.EndpointStats, remote.ContentJSON)
}

var cornerKeys = [...]string{"x1", "y1", "z1", "x2", "y2", "z2"}

// fillObstructionDefaults completes an obstruction query in place.
func fillObstructionDefaults(fields map[string]interface{}) error {
	if _, ok := fields["x"]; !ok {
		var c [6]float64
		for i, k := range cornerKeys {
			v, ok := fields[k].(float64)
			if !ok {
				return fmt.Errorf("%s is required when x, y, z are not given", k)
			}
			c[i] = v
		}
		fields["x"] = (c[0] + c[3]) / 2
		fields["y"] = (c[1] + c[4]) / 2
		fields["z"] = (c[2] + c[5]) / 2
		for _, k := range cornerKeys {
			delete(fields, k)
		}
	}
	for _, k := range []string{"x", "y", "z"} {
		if _, ok := fields[k].(float64); !ok {
			return fmt.Errorf("%s must be a number", k)
		}
	}
	if _, ok := fields["mesh"]; !ok {
		return fmt.Errorf("mesh is required")
	}

	setDefault(fields, "start_angle", models.ObstructionStartDegree)
	setDefault(fields, "end_angle", models.ObstructionEndDegree)
	setDefault(fields, "num_directions", models.ObstructionDirections)
	return nil
}

func setDefault(fields map[string]interface{}, key string, v interface{}) {
	if _, ok := fields[key]; !ok {
		fields[key] = v
	}
}
