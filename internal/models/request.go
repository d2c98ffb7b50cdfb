// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package models defines the request and result types exchanged between the
// gateway's HTTP surface, the orchestration engine and the remote services.
//
// Numeric window fields are pointers so that "absent" is distinguishable from
// zero; validation rejects a request before any remote call is issued.
//
// Example request:
//
//	{
//	  "model_type": "df_default",
//	  "parameters": {
//	    "height_roof_over_floor": 2.8,
//	    "floor_height_above_terrain": 0,
//	    "room_polygon": [[0,0],[5,0],[5,4],[0,4]],
//	    "windows": {
//	      "south": {"x1": -0.6, "y1": 0, "z1": 0.9, "x2": 0.6, "y2": 0, "z2": 2.4, "window_frame_ratio": 0.15}
//	    }
//	  },
//	  "mesh": [[-10,-5,0],[10,-5,0],[10,-5,6],[-10,-5,6]]
//	}
package models

import (
	"fmt"
	"sort"

	"github.com/tomtom215/daylight-gateway/internal/validation"
)

// SimulationRequest is one client request to simulate a room.
type SimulationRequest struct {
	ModelType  string          `json:"model_type" validate:"required"`
	Parameters *RoomParameters `json:"parameters" validate:"required"`
	Mesh       [][]float64     `json:"mesh" validate:"required,min=3,dive,len=3"`

	// Colorize requests an RGB rendering and summary statistics of the merged
	// result. Nil defers to the server default.
	Colorize *bool `json:"colorize,omitempty"`
}

// RoomParameters describes the room shared by every window of a request.
type RoomParameters struct {
	HeightRoofOverFloor     *float64              `json:"height_roof_over_floor,omitempty"`
	FloorHeightAboveTerrain *float64              `json:"floor_height_above_terrain,omitempty"`
	RoomPolygon             [][]float64           `json:"room_polygon" validate:"required,min=3,dive,len=2"`
	Windows                 map[string]WindowSpec `json:"windows" validate:"required,min=1,dive"`
}

// WindowSpec is one window, given by two opposite 3D corners.
type WindowSpec struct {
	X1 *float64 `json:"x1" validate:"required"`
	Y1 *float64 `json:"y1" validate:"required"`
	Z1 *float64 `json:"z1" validate:"required"`
	X2 *float64 `json:"x2" validate:"required"`
	Y2 *float64 `json:"y2" validate:"required"`
	Z2 *float64 `json:"z2" validate:"required"`

	WindowFrameRatio *float64 `json:"window_frame_ratio" validate:"required,gte=0,lte=1"`
	WindowSillHeight *float64 `json:"window_sill_height,omitempty"`
	WindowHeight     *float64 `json:"window_height,omitempty" validate:"omitempty,gt=0"`
	DirectionAngle   *float64 `json:"direction_angle,omitempty"`

	// Horizon and Zenith carry precomputed obstruction angles. When both are
	// present the obstruction stage is skipped for this window.
	Horizon []float64 `json:"horizon,omitempty" validate:"omitempty,len=64"`
	Zenith  []float64 `json:"zenith,omitempty" validate:"omitempty,len=64"`
}

// Validate checks the request shape and geometry. It never touches the network.
func (r *SimulationRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return err
	}
	for _, name := range r.WindowNames() {
		w := r.Parameters.Windows[name]
		if name == "" {
			return &validation.RequestValidationError{Fields: []validation.FieldError{{
				Field: "parameters.windows", Tag: "keys", Message: "window names must not be empty",
			}}}
		}
		if err := w.validateGeometry(name); err != nil {
			return err
		}
	}
	return nil
}

// WindowNames returns the window names in sorted order.
func (r *SimulationRequest) WindowNames() []string {
	if r.Parameters == nil {
		return nil
	}
	names := make([]string, 0, len(r.Parameters.Windows))
	for name := range r.Parameters.Windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPrecomputedAngles reports whether the window supplies both obstruction vectors.
func (w *WindowSpec) HasPrecomputedAngles() bool {
	return len(w.Horizon) == ObstructionDirections && len(w.Zenith) == ObstructionDirections
}

func (w *WindowSpec) validateGeometry(name string) error {
	field := fmt.Sprintf("parameters.windows[%s]", name)
	fail := func(tag, msg string) error {
		return &validation.RequestValidationError{Fields: []validation.FieldError{{
			Field: field, Tag: tag, Message: field + " " + msg,
		}}}
	}

	if (len(w.Horizon) == 0) != (len(w.Zenith) == 0) {
		return fail("angles", "must supply horizon and zenith together")
	}
	if w.DirectionAngle == nil && !w.HasPlanExtent() {
		return fail("direction_angle", errDegenerateWindow.Error())
	}
	return nil
}
