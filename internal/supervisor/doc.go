// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

/*
Package supervisor runs the gateway's long-lived services under a suture v4
supervisor tree.

	RootSupervisor ("daylight-gateway")
	├── AuthSupervisor ("auth-layer")
	│   └── KeySetRefreshService (JWT mode only)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service restarts with backoff. The layers count failures
independently, so a JWKS endpoint outage that keeps the refresher failing
never restarts the HTTP server.

Supervisor events are logged through sutureslog, bridged into zerolog by
logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
