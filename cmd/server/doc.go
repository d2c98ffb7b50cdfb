// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

/*
Package main is the entry point for the Daylight Gateway server.

The gateway accepts one request describing a room, its windows and an
obstructing mesh, and runs each window through the remote obstruction,
encoder and simulation services before merging the per-window results.

# Application Architecture

	RootSupervisor ("daylight-gateway")
	├── AuthSupervisor ("auth-layer")
	│   └── JWKS refresher (AUTH_TYPE=jwt only)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: koanf v2 with defaults, optional config.yaml, environment
 2. Logging: zerolog, with a slog bridge for the supervisor
 3. Authentication: none, static token, or JWT against a remote key set
 4. Remote service clients: one per service, sharing a transport
 5. Orchestrator and HTTP router
 6. Supervisor tree, then block until SIGINT or SIGTERM

# Configuration

Common environment variables:

	AUTH_TYPE             none | token | jwt (aliases: auth0, oauth2)
	API_TOKEN             static bearer token (token mode)
	AUTH0_DOMAIN          issuer domain (jwt mode)
	AUTH0_AUDIENCE        expected audience (jwt mode)
	DEPLOYMENT_MODE       local | hosted, selects default service hosts
	<SERVICE>_SERVICE_URL per-service override (OBSTRUCTION, ENCODER, MODEL, MERGER, STATS)
	PORT                  listen port
	LOG_LEVEL, LOG_FORMAT

Startup fails fast when the configuration is invalid, for example token
mode without a token.
*/
package main
