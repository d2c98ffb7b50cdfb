// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies why a remote call failed.
type ErrorKind int

const (
	// KindTimeout means the call exceeded its per-attempt budget.
	KindTimeout ErrorKind = iota + 1
	// KindConnectionRefused covers transport failures and an open circuit breaker.
	KindConnectionRefused
	// KindUpstream means the service answered with a non-2xx status or an
	// explicit error document.
	KindUpstream
	// KindMalformedResponse means a 2xx body could not be decoded or failed
	// a structural check.
	KindMalformedResponse
	// KindCanceled means the caller's context ended before the call finished.
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionRefused:
		return "connection_refused"
	case KindUpstream:
		return "upstream_error"
	case KindMalformedResponse:
		return "malformed_response"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// CallError describes a failed remote call.
type CallError struct {
	Service  string
	Endpoint string
	Kind     ErrorKind

	// StatusCode and Body are set for KindUpstream. Body is truncated.
	StatusCode int
	Body       string

	Err error
}

func (e *CallError) Error() string {
	target := e.Service + " " + e.Endpoint
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s timed out", target)
	case KindConnectionRefused:
		if e.Err != nil {
			return fmt.Sprintf("%s unreachable: %v", target, e.Err)
		}
		return fmt.Sprintf("%s unreachable", target)
	case KindUpstream:
		if e.Body != "" {
			return fmt.Sprintf("%s returned %d: %s", target, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s returned %d", target, e.StatusCode)
	case KindMalformedResponse:
		return fmt.Sprintf("%s returned a malformed response: %v", target, e.Err)
	case KindCanceled:
		return fmt.Sprintf("%s call canceled", target)
	default:
		return fmt.Sprintf("%s failed: %v", target, e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether the service rejected the request with a 4xx.
func (e *CallError) IsClientError() bool {
	return e.Kind == KindUpstream && e.StatusCode >= 400 && e.StatusCode < 500
}

// IsForbidden reports an authorization rejection from the service itself.
func (e *CallError) IsForbidden() bool {
	return e.Kind == KindUpstream && e.StatusCode == http.StatusForbidden
}

// retryable reports whether another attempt may succeed: transport failures
// and 5xx responses only.
func (e *CallError) retryable() bool {
	switch e.Kind {
	case KindConnectionRefused:
		return true
	case KindUpstream:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// AsCallError unwraps err to a *CallError.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
