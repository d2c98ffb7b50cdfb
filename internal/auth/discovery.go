// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	oidcclient "github.com/zitadel/oidc/v3/pkg/client"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/logging"
)

// ResolveJWKSURL returns the key set URL for cfg: the explicit JWKS_URL, the
// jwks_uri from OIDC discovery of the issuer, or <issuer>.well-known/jwks.json.
func ResolveJWKSURL(ctx context.Context, cfg *config.JWTConfig, client *http.Client) string {
	if cfg.JWKSURL != "" {
		return cfg.JWKSURL
	}

	issuer := cfg.IssuerURL()
	if cfg.Discovery {
		timeout := cfg.FetchTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		discovered, err := oidcclient.Discover(dctx, issuer, client)
		switch {
		case err != nil:
			logging.Warn().Err(err).Str("issuer", issuer).Msg("OIDC discovery failed, using default JWKS path")
		case discovered.JwksURI == "":
			logging.Warn().Str("issuer", issuer).Msg("OIDC discovery returned no jwks_uri, using default JWKS path")
		default:
			return discovered.JwksURI
		}
	}

	if !strings.HasSuffix(issuer, "/") {
		issuer += "/"
	}
	return issuer + ".well-known/jwks.json"
}
