// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package main provides the Daylight Gateway HTTP server
//
// @title Daylight Gateway API
// @version 1.0
// @description Orchestrates daylight simulations across remote obstruction, encoder, model and merge services.
// @description
// @description ## Flow
// @description
// @description `POST /v1/run` fans out one pipeline per window (obstruction angles, encode, simulate)
// @description and merges the per-window matrices over the room polygon. A failure in any window fails
// @description the whole request; partial results are never returned.
// @description
// @description ## Authentication
// @description
// @description `/v1` routes require `Authorization: Bearer <token>` unless the gateway runs with `AUTH_TYPE=none`.
// @description The token is either the static API token or a JWT signed by the configured issuer.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "error": "window \"south\" failed at simulate: model returned 500",
// @description   "error_type": "UPSTREAM_ERROR",
// @description   "window": "south",
// @description   "stage": "simulate",
// @description   "request_id": "b1f0..."
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/daylight-gateway/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8081
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token: the static API token or a JWT.
//
// @tag.name Core
// @tag.description Status and health
//
// @tag.name Simulation
// @tag.description Orchestrated simulation runs
//
// @tag.name Stages
// @tag.description Single-hop access to individual remote services
package main
