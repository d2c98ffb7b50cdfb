// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package pipeline

import (
	"fmt"

	"github.com/tomtom215/daylight-gateway/internal/models"
)

// Stage names a remote call in the window pipeline.
type Stage string

const (
	StageDirection   Stage = "direction"
	StageObstruction Stage = "obstruction"
	StageEncode      Stage = "encode"
	StageSimulate    Stage = "simulate"
)

// State is a window pipeline state.
type State int

const (
	StatePending State = iota
	StateObstructionDone
	StateEncodedDone
	StateSimulated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateObstructionDone:
		return "obstruction_done"
	case StateEncodedDone:
		return "encoded_done"
	case StateSimulated:
		return "simulated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSimulated || s == StateFailed
}

// next returns the stage that leaves s, if any.
func (s State) next() (Stage, bool) {
	switch s {
	case StatePending:
		return StageObstruction, true
	case StateObstructionDone:
		return StageEncode, true
	case StateEncodedDone:
		return StageSimulate, true
	default:
		return "", false
	}
}

// StageError is a window failure tagged with the stage that produced it.
type StageError struct {
	Window string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("window %q failed at %s: %v", e.Window, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Outcome is the result of running one window to completion: exactly one of
// Result and Err is set.
type Outcome struct {
	Window string
	Result *models.WindowResult
	Err    *StageError
}

// Succeeded reports whether the window reached Simulated.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}
