// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/tomtom215/daylight-gateway/docs" // Register swagger docs
	"github.com/tomtom215/daylight-gateway/internal/api"
	"github.com/tomtom215/daylight-gateway/internal/auth"
	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/orchestrator"
	"github.com/tomtom215/daylight-gateway/internal/remote"
	"github.com/tomtom215/daylight-gateway/internal/supervisor"
	"github.com/tomtom215/daylight-gateway/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", cfg.Server.Version).
		Str("auth_mode", cfg.Security.NormalizedAuthMode()).
		Str("deployment_mode", cfg.Services.DeploymentMode).
		Msg("Starting Daylight Gateway")

	for _, svc := range config.AllServices {
		logging.Info().Str("service", svc).Str("url", cfg.Services.BaseURL(svc)).Msg("Remote service configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// JWT mode runs discovery and the first key fetch here. A failed fetch
	// is logged and retried by the refresher rather than blocking startup.
	initCtx, initCancel := context.WithTimeout(ctx, 2*cfg.Security.JWT.FetchTimeout)
	validator, err := auth.NewValidator(initCtx, &cfg.Security)
	initCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	remoteServices := remote.NewServices(cfg)
	orch := orchestrator.New(remoteServices, cfg.Orchestration)

	handler := api.NewHandler(cfg, orch, remoteServices)
	router := api.NewRouter(handler, validator, api.ChiMiddlewareConfigFrom(&cfg.Security))

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:         addr,
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if keys := validator.KeySet(); keys != nil {
		tree.AddAuthService(services.NewKeySetRefreshService(keys, cfg.Security.JWT.JWKSCacheTTL))
		logging.Info().
			Str("jwks_url", keys.URL()).
			Dur("interval", cfg.Security.JWT.JWKSCacheTTL).
			Msg("JWKS refresher added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, tree); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Daylight Gateway stopped")
}

// run serves the tree until ctx is canceled or the tree stops on its own.
func run(ctx context.Context, tree *supervisor.SupervisorTree) error {
	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// suture sends exactly one value and never closes the channel.
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	return nil
}
