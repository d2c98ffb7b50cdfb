// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/logging"
)

// JWTValidator accepts RS-signed bearer JWTs from one issuer for one audience.
type JWTValidator struct {
	issuer   string
	audience string
	parser   *jwt.Parser
	keys     *KeySet
}

// NewJWTValidator resolves the key set URL and performs an initial fetch.
// A failed initial fetch is logged, not fatal: the refresher and unknown-kid
// refetch will retry.
func NewJWTValidator(ctx context.Context, cfg *config.JWTConfig) (*JWTValidator, error) {
	issuer := cfg.IssuerURL()
	if issuer == "" {
		return nil, errors.New("jwt auth requires AUTH0_DOMAIN or JWT_ISSUER")
	}
	if cfg.Audience == "" {
		return nil, errors.New("jwt auth requires an audience")
	}

	client := &http.Client{Timeout: cfg.FetchTimeout}
	jwksURL := ResolveJWKSURL(ctx, cfg, client)
	keys := NewKeySet(jwksURL, client, cfg.FetchTimeout, cfg.MinRefreshInterval)

	v := newJWTValidator(issuer, cfg.Audience, cfg.Algorithms, cfg.Leeway, keys)
	if err := keys.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Str("jwks_url", jwksURL).Msg("Initial JWKS fetch failed")
	} else {
		logging.Info().Str("issuer", issuer).Str("jwks_url", jwksURL).Int("keys", keys.Len()).Msg("JWT validation ready")
	}
	return v, nil
}

func newJWTValidator(issuer, audience string, algorithms []string, leeway time.Duration, keys *KeySet) *JWTValidator {
	if len(algorithms) == 0 {
		algorithms = []string{"RS256"}
	}
	return &JWTValidator{
		issuer:   issuer,
		audience: audience,
		keys:     keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods(algorithms),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Mode implements Validator.
func (v *JWTValidator) Mode() Mode { return ModeJWT }

// KeySet implements Validator.
func (v *JWTValidator) KeySet() *KeySet { return v.keys }

// Validate implements Validator.
func (v *JWTValidator) Validate(r *http.Request) (*Principal, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	claims := &jwt.RegisteredClaims{}
	_, err = v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(r.Context(), kid)
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}
	return &Principal{Subject: claims.Subject, Mode: ModeJWT}, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredJWT, err)
	case errors.Is(err, ErrInvalidJWT):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInvalidJWT, err)
	}
}
