// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package services adapts the gateway's long-running components to
// suture.Service so they can run under the supervisor tree.
//
//   - HTTPServerService: the inbound HTTP server (api-layer)
//   - KeySetRefreshService: periodic JWKS refresh in JWT mode (auth-layer)
//
// Each wrapper returns ctx.Err() on a requested shutdown and a wrapped error
// on failure, which suture treats as a crash and restarts with backoff.
package services
