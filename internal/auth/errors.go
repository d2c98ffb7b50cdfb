// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"errors"
	"net/http"
)

// Authentication errors. Strategy errors wrap one of these.
var (
	ErrMissingAuthorization = errors.New("authorization header is required")
	ErrInvalidAuthFormat    = errors.New("authorization header must be 'Bearer <token>'")
	ErrInvalidToken         = errors.New("invalid API token")
	ErrInvalidJWT           = errors.New("invalid token")
	ErrExpiredJWT           = errors.New("token has expired")
	ErrKeySetUnavailable    = errors.New("signing keys are unavailable")
)

// ErrorType returns the machine-readable type for an authentication error.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrMissingAuthorization):
		return "MISSING_AUTHORIZATION"
	case errors.Is(err, ErrInvalidAuthFormat):
		return "INVALID_AUTH_FORMAT"
	case errors.Is(err, ErrInvalidToken):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrExpiredJWT):
		return "EXPIRED_JWT"
	case errors.Is(err, ErrKeySetUnavailable):
		return "KEY_SET_UNAVAILABLE"
	default:
		return "INVALID_JWT"
	}
}

// HTTPStatus returns the response status for an authentication error.
// A missing or malformed header is a bad request; rejected credentials are
// forbidden; an unreachable key set is the gateway's problem, not the caller's.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingAuthorization), errors.Is(err, ErrInvalidAuthFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrKeySetUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden
	}
}

// PublicMessage is the client-facing message for an authentication error.
// Wrapped detail (parser output, key ids) is logged, not returned.
func PublicMessage(err error) string {
	for _, sentinel := range []error{
		ErrMissingAuthorization, ErrInvalidAuthFormat, ErrInvalidToken,
		ErrExpiredJWT, ErrKeySetUnavailable, ErrInvalidJWT,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrInvalidJWT.Error()
}
