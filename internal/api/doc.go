// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

/*
Package api is the gateway's HTTP surface.

Routes:

	GET  /                         status (unauthenticated)
	GET  /health                   liveness (unauthenticated)
	GET  /metrics                  Prometheus metrics
	GET  /swagger/*                OpenAPI UI
	POST /v1/run                   full orchestration
	POST /v1/encode                obstruction + encode for one window
	POST /v1/encode_raw            forward to encoder /encode
	POST /v1/obstruction           forward to obstruction /obstruction_multi
	POST /v1/calculate-direction   forward to encoder /calculate-direction
	POST /v1/get-reference-point   forward to encoder /get-reference-point
	POST /v1/merge                 forward to merger /merge
	POST /v1/stats                 forward to stats /get_stats

Every /v1 route runs behind the per-IP rate limiter, Prometheus metrics and
the configured auth strategy. Errors use one envelope on every route:

	{"status": "error", "error": "...", "error_type": "UPSTREAM_ERROR",
	 "window": "south", "stage": "simulate", "request_id": "..."}
*/
package api
