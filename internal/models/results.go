// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package models

import (
	"errors"
	"fmt"
)

// Obstruction sampling used for every window: 64 directions evenly spaced
// between 17.5 and 162.5 degrees relative to the window's direction angle.
const (
	ObstructionDirections  = 64
	ObstructionStartDegree = 17.5
	ObstructionEndDegree   = 162.5
)

// ObstructionResult holds the horizon and zenith angles for one window, one
// value per sampled direction, in sampling order.
type ObstructionResult struct {
	Horizon []float64 `json:"horizon_angles"`
	Zenith  []float64 `json:"zenith_angles"`
}

// Validate checks that both vectors have one value per sampled direction.
func (o *ObstructionResult) Validate() error {
	if len(o.Horizon) != ObstructionDirections || len(o.Zenith) != ObstructionDirections {
		return fmt.Errorf("expected %d angles each, got horizon: %d, zenith: %d",
			ObstructionDirections, len(o.Horizon), len(o.Zenith))
	}
	return nil
}

// EncodedPayload is the encoder's output for one window. The gateway never
// inspects Data; it is handed to the simulation model as-is.
type EncodedPayload struct {
	Window      string
	Data        []byte
	ContentType string
}

// Matrix is a dense row-major 2D grid.
type Matrix [][]float64

// Dims returns the matrix shape. It fails for empty or ragged matrices.
func (m Matrix) Dims() (rows, cols int, err error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return 0, 0, errors.New("matrix is empty")
	}
	cols = len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return len(m), cols, nil
}

// Ones returns a rows×cols matrix of ones.
func Ones(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = 1
		}
		m[i] = row
	}
	return m
}

// WindowResult is the simulation output for one window: daylight factor values
// and a room mask of equal dimensions.
type WindowResult struct {
	DFValues Matrix `json:"df_values"`
	Mask     Matrix `json:"mask"`
}

// Normalize validates the result and fills a missing mask with ones.
func (r *WindowResult) Normalize() error {
	rows, cols, err := r.DFValues.Dims()
	if err != nil {
		return fmt.Errorf("simulation result: %w", err)
	}
	if len(r.Mask) == 0 {
		r.Mask = Ones(rows, cols)
		return nil
	}
	mr, mc, err := r.Mask.Dims()
	if err != nil {
		return fmt.Errorf("simulation mask: %w", err)
	}
	if mr != rows || mc != cols {
		return fmt.Errorf("simulation mask is %dx%d, result is %dx%d", mr, mc, rows, cols)
	}
	return nil
}

// Stats summarizes a merged daylight factor matrix.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// MergedResult is the client-facing result of a full run.
type MergedResult struct {
	DFMatrix Matrix `json:"df_matrix"`
	RoomMask Matrix `json:"room_mask"`
	Shape    [2]int `json:"shape"`

	Windows         []string           `json:"windows"`
	DirectionAngles map[string]float64 `json:"direction_angles"`

	// RGB is the colorized rendering as returned by the statistics service.
	RGB   interface{} `json:"rgb,omitempty"`
	Stats *Stats      `json:"stats,omitempty"`
}
