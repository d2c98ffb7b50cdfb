// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

/*
Package auth gates the gateway's protected routes.

Exactly one strategy is active for the lifetime of the process, chosen from
configuration at startup:

  - none: every request is accepted
  - token: the bearer value must match API_TOKEN (constant-time) or verify
    against the bcrypt hash in API_TOKEN_HASH
  - jwt: the bearer value must be an RS-signed JWT with matching issuer and
    audience and an expiry; aliases auth0, oauth2 and oidc select this mode

All three satisfy Validator, so route handling never branches on the mode.

Signing keys for jwt mode come from a remote JWKS document. The URL is taken
from JWKS_URL, otherwise from OIDC discovery of the issuer (zitadel/oidc),
otherwise <issuer>.well-known/jwks.json. KeySet serves concurrent readers
under an RWMutex, collapses concurrent refreshes with singleflight, and
throttles unknown-kid refetches with a token bucket. A supervised service
refreshes the set on a fixed interval.

Usage:

	v, err := auth.NewValidator(ctx, &cfg.Security)
	if err != nil {
	    return err
	}
	r.Use(auth.Middleware(v, respondAuthError))
*/
package auth
