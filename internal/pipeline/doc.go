// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

/*
Package pipeline drives one window through the remote computation stages.

Each window is a small state machine:

	Pending -> ObstructionDone -> EncodedDone -> Simulated
	   |             |                 |
	   +-------------+-----------------+----> Failed(stage)

Every transition is exactly one remote call, and a stage cannot start until
the previous one produced its output: encoding needs obstruction angles,
simulation needs an encoded payload. A window that supplies precomputed
horizon and zenith angles starts at ObstructionDone.

The pipeline never retries; retry belongs to the remote client. A failure is
tagged with the stage that produced it and the window is parked in Failed,
from which it never resumes.

Usage:

	w, err := pipeline.New(req, "south", services)
	if err != nil {
	    return err // request-level validation problem
	}
	outcome := w.Run(ctx)
	if outcome.Err != nil {
	    log.Printf("window %s failed at %s", outcome.Err.Window, outcome.Err.Stage)
	}
*/
package pipeline
