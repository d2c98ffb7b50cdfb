// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package models

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/validation"
)

const sampleRequest = `{
  "model_type": "df_default",
  "parameters": {
    "height_roof_over_floor": 2.8,
    "floor_height_above_terrain": 0,
    "room_polygon": [[0,0],[5,0],[5,4],[0,4]],
    "windows": {
      "south": {"x1": -0.6, "y1": 0, "z1": 0.9, "x2": 0.6, "y2": 0, "z2": 2.4, "window_frame_ratio": 0.15}
    }
  },
  "mesh": [[-10,-5,0],[10,-5,0],[10,-5,6],[-10,-5,6]]
}`

func decodeSample(t *testing.T) *SimulationRequest {
	t.Helper()
	var req SimulationRequest
	if err := json.Unmarshal([]byte(sampleRequest), &req); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return &req
}

func f(v float64) *float64 { return &v }

func TestSimulationRequest_ValidSample(t *testing.T) {
	t.Parallel()

	req := decodeSample(t)
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := req.WindowNames(); len(got) != 1 || got[0] != "south" {
		t.Errorf("WindowNames() = %v", got)
	}
}

func TestSimulationRequest_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*SimulationRequest)
		wantMsg string
	}{
		{"missing model type", func(r *SimulationRequest) { r.ModelType = "" }, "model_type is required"},
		{"missing parameters", func(r *SimulationRequest) { r.Parameters = nil }, "parameters is required"},
		{"missing mesh", func(r *SimulationRequest) { r.Mesh = nil }, "mesh is required"},
		{"short mesh", func(r *SimulationRequest) { r.Mesh = r.Mesh[:2] }, "mesh must contain at least 3 items"},
		{"no windows", func(r *SimulationRequest) { r.Parameters.Windows = map[string]WindowSpec{} }, "parameters.windows must contain at least 1 items"},
		{
			"frame ratio above 1",
			func(r *SimulationRequest) {
				w := r.Parameters.Windows["south"]
				w.WindowFrameRatio = f(1.2)
				r.Parameters.Windows["south"] = w
			},
			"window_frame_ratio must be less than or equal to 1",
		},
		{
			"missing corner",
			func(r *SimulationRequest) {
				w := r.Parameters.Windows["south"]
				w.Z2 = nil
				r.Parameters.Windows["south"] = w
			},
			"parameters.windows[south].z2 is required",
		},
		{
			"horizon without zenith",
			func(r *SimulationRequest) {
				w := r.Parameters.Windows["south"]
				w.Horizon = make([]float64, ObstructionDirections)
				r.Parameters.Windows["south"] = w
			},
			"horizon and zenith together",
		},
		{
			"vertical sliver without direction",
			func(r *SimulationRequest) {
				w := r.Parameters.Windows["south"]
				w.X2 = f(-0.6)
				r.Parameters.Windows["south"] = w
			},
			"no horizontal extent",
		},
		{
			"empty window name",
			func(r *SimulationRequest) {
				r.Parameters.Windows[""] = r.Parameters.Windows["south"]
			},
			"window names must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := decodeSample(t)
			tt.mutate(req)
			err := req.Validate()

			var ve *validation.RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *RequestValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() = %q, want containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestWindowSpec_ReferencePoint(t *testing.T) {
	t.Parallel()

	req := decodeSample(t)
	w := req.Parameters.Windows["south"]
	got := w.ReferencePoint()
	want := Point3{X: 0, Y: 0, Z: 1.65}
	if math.Abs(got.X-want.X) > 1e-12 || math.Abs(got.Y-want.Y) > 1e-12 || math.Abs(got.Z-want.Z) > 1e-12 {
		t.Errorf("ReferencePoint() = %+v, want %+v", got, want)
	}
}

func TestWindowResult_Normalize(t *testing.T) {
	t.Parallel()

	r := WindowResult{DFValues: Matrix{{1, 2, 3}, {4, 5, 6}}}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize() = %v", err)
	}
	rows, cols, err := r.Mask.Dims()
	if err != nil || rows != 2 || cols != 3 {
		t.Fatalf("mask dims = %dx%d (%v), want 2x3", rows, cols, err)
	}
	if r.Mask[1][2] != 1 {
		t.Errorf("default mask value = %v, want 1", r.Mask[1][2])
	}

	bad := WindowResult{DFValues: Matrix{{1, 2}, {3}}}
	if err := bad.Normalize(); err == nil {
		t.Error("expected error for ragged matrix")
	}

	mismatch := WindowResult{DFValues: Matrix{{1, 2}}, Mask: Matrix{{1}}}
	if err := mismatch.Normalize(); err == nil {
		t.Error("expected error for mask shape mismatch")
	}
}

func TestObstructionResult_Validate(t *testing.T) {
	t.Parallel()

	ok := ObstructionResult{Horizon: make([]float64, 64), Zenith: make([]float64, 64)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	short := ObstructionResult{Horizon: make([]float64, 63), Zenith: make([]float64, 64)}
	if err := short.Validate(); err == nil {
		t.Error("expected error for 63 horizon angles")
	}
}
