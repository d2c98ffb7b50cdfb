// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/daylight-gateway/internal/config"
)

// Mode is the active authentication strategy.
type Mode string

const (
	ModeNone  Mode = config.AuthModeNone
	ModeToken Mode = config.AuthModeToken
	ModeJWT   Mode = config.AuthModeJWT
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string `json:"subject"`
	Mode    Mode   `json:"mode"`
}

// Validator checks an incoming request's credentials. KeySet returns the
// key cache that needs scheduled refreshes, or nil for strategies without one.
type Validator interface {
	Mode() Mode
	Validate(r *http.Request) (*Principal, error)
	KeySet() *KeySet
}

// NewValidator resolves the configured strategy. It is called once at
// startup; jwt mode performs key set discovery and an initial fetch here.
func NewValidator(ctx context.Context, cfg *config.SecurityConfig) (Validator, error) {
	switch Mode(cfg.NormalizedAuthMode()) {
	case ModeNone:
		return NoneValidator{}, nil
	case ModeToken:
		return NewTokenValidator(cfg.APIToken, cfg.APITokenHash)
	case ModeJWT:
		return NewJWTValidator(ctx, &cfg.JWT)
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}

// NoneValidator accepts every request.
type NoneValidator struct{}

// Mode implements Validator.
func (NoneValidator) Mode() Mode { return ModeNone }

// KeySet implements Validator.
func (NoneValidator) KeySet() *KeySet { return nil }

// Validate implements Validator.
func (NoneValidator) Validate(*http.Request) (*Principal, error) {
	return &Principal{Subject: "anonymous", Mode: ModeNone}, nil
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
// The header must have exactly two space-separated parts.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorization
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidAuthFormat
	}
	return parts[1], nil
}
