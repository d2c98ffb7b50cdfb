// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package models

import (
	"errors"
	"math"
)

// Point3 is a point in room coordinates (meters).
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

const geometryEpsilon = 1e-9

var errDegenerateWindow = errors.New("has no horizontal extent; direction_angle must be given")

// ReferencePoint is the midpoint of the window's two corners. Obstruction
// angles are computed from this point.
func (w *WindowSpec) ReferencePoint() Point3 {
	return Point3{
		X: (deref(w.X1) + deref(w.X2)) / 2,
		Y: (deref(w.Y1) + deref(w.Y2)) / 2,
		Z: (deref(w.Z1) + deref(w.Z2)) / 2,
	}
}

// HasPlanExtent reports whether the window spans a horizontal distance, which
// a direction angle can only be derived from.
func (w *WindowSpec) HasPlanExtent() bool {
	return math.Hypot(deref(w.X2)-deref(w.X1), deref(w.Y2)-deref(w.Y1)) >= geometryEpsilon
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
