// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/daylight-gateway/internal/pipeline"
	"github.com/tomtom215/daylight-gateway/internal/remote"
	"github.com/tomtom215/daylight-gateway/internal/validation"
)

// ErrorType is the machine-readable error kind returned to clients.
type ErrorType string

const (
	TypeValidation   ErrorType = "VALIDATION_ERROR"
	TypeUpstream     ErrorType = "UPSTREAM_ERROR"
	TypeTimeout      ErrorType = "TIMEOUT_ERROR"
	TypeConnection   ErrorType = "CONNECTION_ERROR"
	TypeAggregation  ErrorType = "AGGREGATION_ERROR"
	TypeCanceled     ErrorType = "REQUEST_CANCELED"
	TypeInternal     ErrorType = "INTERNAL_ERROR"

	// TypeUpstreamAuth means a service refused the gateway's own request
	// with a 403. It is still a gateway-side failure, not bad client input.
	TypeUpstreamAuth ErrorType = "AUTHORIZATION_ERROR"
)

// StatusClientClosedRequest is reported when the caller went away mid-run.
const StatusClientClosedRequest = 499

// Aggregation stages.
const (
	StageMerge      = "merge"
	StageStatistics = "statistics"
	StageColorize   = "colorize"
)

// Error is an orchestration failure. Window and Stage identify where a
// pipeline failure happened; both are empty for validation errors.
type Error struct {
	Type    ErrorType
	Window  string
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Window != "" {
		return fmt.Sprintf("window %q failed at %s: %s", e.Window, e.Stage, e.Message)
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s failed: %s", e.Stage, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUpstream, TypeUpstreamAuth:
		return http.StatusBadGateway
	case TypeConnection:
		return http.StatusServiceUnavailable
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// NewValidationError wraps a request validation failure.
func NewValidationError(err error) *Error {
	return &Error{Type: TypeValidation, Message: err.Error(), Err: err}
}

// FromRemoteError classifies a remote call failure. It is used for pipeline
// stages and for single-hop forwards alike.
func FromRemoteError(err error, window, stage string) *Error {
	e := &Error{Window: window, Stage: stage, Message: err.Error(), Err: err}

	ce, ok := remote.AsCallError(err)
	if !ok {
		var verr *validation.RequestValidationError
		switch {
		case errors.As(err, &verr):
			e.Type = TypeValidation
		case errors.Is(err, context.Canceled):
			e.Type = TypeCanceled
		case errors.Is(err, context.DeadlineExceeded):
			e.Type = TypeTimeout
		default:
			e.Type = TypeInternal
		}
		return e
	}

	switch ce.Kind {
	case remote.KindTimeout:
		e.Type = TypeTimeout
	case remote.KindConnectionRefused:
		e.Type = TypeConnection
	case remote.KindCanceled:
		e.Type = TypeCanceled
	case remote.KindUpstream:
		// The CallError message keeps the upstream status code.
		if ce.IsForbidden() {
			e.Type = TypeUpstreamAuth
		} else {
			e.Type = TypeUpstream
		}
	default:
		e.Type = TypeUpstream
	}
	return e
}

// fromStageError classifies a window pipeline failure.
func fromStageError(se *pipeline.StageError) *Error {
	return FromRemoteError(se.Err, se.Window, string(se.Stage))
}

// aggregationError wraps a merge, statistics or colorize failure.
func aggregationError(stage string, err error) *Error {
	e := &Error{Type: TypeAggregation, Stage: stage, Message: err.Error(), Err: err}
	if ce, ok := remote.AsCallError(err); ok && ce.Kind == remote.KindCanceled {
		e.Type = TypeCanceled
	}
	return e
}
