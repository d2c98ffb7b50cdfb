// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package orchestrator runs a simulation request end to end: it validates
// the request, fans one pipeline per window out over a bounded worker pool,
// fans the results back in and hands them to the aggregator.
//
// Fan-in is all-or-nothing. The first window to fail cancels the shared
// context, queued windows never start, and the failure is returned with the
// window name and stage attached. Merge only ever sees the complete window
// set.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/pipeline"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

// Services is every remote call a run can make. *remote.Services satisfies it.
type Services interface {
	pipeline.Services
	Merge(ctx context.Context, req remote.MergeRequest) (*remote.MergeResponse, error)
	Statistics(ctx context.Context, req remote.StatsRequest) (*models.Stats, error)
	Colorize(ctx context.Context, req remote.StatsRequest) (interface{}, error)
}

// Orchestrator runs simulation requests. It holds no per-request state and
// is safe for concurrent use.
type Orchestrator struct {
	services   Services
	aggregator *Aggregator
	maxWorkers int
	colorize   bool
}

// New creates an orchestrator.
func New(services Services, cfg config.OrchestrationConfig) *Orchestrator {
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		services:   services,
		aggregator: NewAggregator(services),
		maxWorkers: workers,
		colorize:   cfg.Colorize,
	}
}

// Run executes every window pipeline and merges the results.
func (o *Orchestrator) Run(ctx context.Context, req *models.SimulationRequest) (*models.MergedResult, error) {
	start := time.Now()

	windows, err := o.prepare(req)
	if err != nil {
		metrics.RecordOrchestration("validation_error", 0, time.Since(start))
		return nil, err
	}

	log := logging.Ctx(ctx).With().Str("model_type", req.ModelType).Int("windows", len(windows)).Logger()
	log.Info().Msg("Starting orchestration run")

	results, err := o.fanOut(ctx, windows)
	if err != nil {
		oe := o.classifyFanOutError(ctx, err)
		log.Warn().Err(oe).Str("error_type", string(oe.Type)).Msg("Orchestration run failed")
		metrics.RecordOrchestration("pipeline_error", len(windows), time.Since(start))
		return nil, oe
	}

	directions := make(map[string]float64, len(windows))
	for _, w := range windows {
		directions[w.Name()] = w.DirectionAngle()
	}

	merged, err := o.aggregator.Aggregate(ctx, req, directions, results, o.shouldColorize(req))
	if err != nil {
		log.Warn().Err(err).Msg("Aggregation failed")
		metrics.RecordOrchestration("aggregation_error", len(windows), time.Since(start))
		return nil, err
	}

	log.Info().Dur("duration", time.Since(start)).
		Int("rows", merged.Shape[0]).Int("cols", merged.Shape[1]).
		Msg("Orchestration run complete")
	metrics.RecordOrchestration("success", len(windows), time.Since(start))
	return merged, nil
}

// EncodeWindow runs one window through obstruction and encoding only. An
// empty name selects the request's single window.
func (o *Orchestrator) EncodeWindow(ctx context.Context, req *models.SimulationRequest, name string) (*models.EncodedPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, NewValidationError(err)
	}
	if name == "" {
		names := req.WindowNames()
		if len(names) != 1 {
			return nil, NewValidationError(fmt.Errorf("request has %d windows; name one with ?window=", len(names)))
		}
		name = names[0]
	}

	w, err := pipeline.New(req, name, o.services)
	if err != nil {
		return nil, NewValidationError(err)
	}
	if err := w.RunUntil(ctx, pipeline.StateEncodedDone); err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			return nil, fromStageError(se)
		}
		return nil, FromRemoteError(err, name, "")
	}
	return w.Payload(), nil
}

// prepare validates the request and builds one pipeline per window. Nothing
// here touches the network.
func (o *Orchestrator) prepare(req *models.SimulationRequest) ([]*pipeline.Window, error) {
	if req == nil {
		return nil, NewValidationError(errors.New("request body is required"))
	}
	if err := req.Validate(); err != nil {
		return nil, NewValidationError(err)
	}

	names := req.WindowNames()
	windows := make([]*pipeline.Window, 0, len(names))
	for _, name := range names {
		w, err := pipeline.New(req, name, o.services)
		if err != nil {
			return nil, NewValidationError(err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// fanOut runs every window with at most maxWorkers in flight and returns the
// first failure, or every result keyed by window name.
func (o *Orchestrator) fanOut(ctx context.Context, windows []*pipeline.Window) (map[string]models.WindowResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxWorkers)

	var mu sync.Mutex
	results := make(map[string]models.WindowResult, len(windows))

	for _, w := range windows {
		w := w
		g.Go(func() error {
			// A window queued behind a failure never starts.
			if gctx.Err() != nil {
				return nil
			}

			metrics.ActiveWindowPipelines.Inc()
			defer metrics.ActiveWindowPipelines.Dec()

			outcome := w.Run(gctx)
			if outcome.Err != nil {
				return outcome.Err
			}

			mu.Lock()
			results[outcome.Window] = *outcome.Result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(results) != len(windows) {
		return nil, fmt.Errorf("collected %d of %d window results", len(results), len(windows))
	}
	return results, nil
}

func (o *Orchestrator) classifyFanOutError(ctx context.Context, err error) *Error {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return fromStageError(se)
	}
	if ctx.Err() != nil {
		return &Error{Type: TypeCanceled, Message: "request canceled", Err: ctx.Err()}
	}
	return &Error{Type: TypeInternal, Message: err.Error(), Err: err}
}

func (o *Orchestrator) shouldColorize(req *models.SimulationRequest) bool {
	if req.Colorize != nil {
		return *req.Colorize
	}
	return o.colorize
}
