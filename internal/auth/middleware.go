// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ErrorResponder writes an authentication failure to the client.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Middleware rejects requests that fail v and stores the Principal of
// accepted ones in the request context.
func Middleware(v Validator, respond ErrorResponder) func(http.Handler) http.Handler {
	mode := string(v.Mode())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := v.Validate(r)
			if err != nil {
				errType := ErrorType(err)
				metrics.RecordAuthAttempt(mode, errType)
				event := logging.Ctx(r.Context()).Warn().
					Str("auth_mode", mode).
					Str("error_type", errType).
					Str("path", logging.SanitizeValue(r.URL.Path, 128))
				if token, tokErr := BearerToken(r); tokErr == nil {
					event = event.Str("credential", logging.RedactCredential(token))
				}
				event.Err(err).Msg("Authentication failed")
				respond(w, r, err)
				return
			}

			metrics.RecordAuthAttempt(mode, "success")
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}
