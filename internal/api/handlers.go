// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

// Runner executes orchestration runs. *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, req *models.SimulationRequest) (*models.MergedResult, error)
	EncodeWindow(ctx context.Context, req *models.SimulationRequest, name string) (*models.EncodedPayload, error)
}

// Forwarder sends a single-hop call to a remote service. *remote.Services
// satisfies it.
type Forwarder interface {
	Forward(ctx context.Context, service, endpoint string, body json.RawMessage, kind remote.ContentKind) (*remote.Response, error)
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	runner       Runner
	forwarder    Forwarder
	version      string
	authMode     string
	maxBodyBytes int64
	startTime    time.Time
}

// NewHandler creates the route handlers.
func NewHandler(cfg *config.Config, runner Runner, forwarder Forwarder) *Handler {
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		runner:       runner,
		forwarder:    forwarder,
		version:      cfg.Server.Version,
		authMode:     cfg.Security.NormalizedAuthMode(),
		maxBodyBytes: maxBody,
		startTime:    time.Now(),
	}
}
