// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/pipeline"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

// AggregationServices is the remote surface used after fan-in.
type AggregationServices interface {
	Merge(ctx context.Context, req remote.MergeRequest) (*remote.MergeResponse, error)
	Statistics(ctx context.Context, req remote.StatsRequest) (*models.Stats, error)
	Colorize(ctx context.Context, req remote.StatsRequest) (interface{}, error)
}

// Aggregator merges per-window results into the client-facing result.
type Aggregator struct {
	services AggregationServices
}

// NewAggregator creates an aggregator.
func NewAggregator(services AggregationServices) *Aggregator {
	return &Aggregator{services: services}
}

// Aggregate merges results (keyed by window name) over the room polygon and,
// when colorize is set, adds summary statistics and an RGB rendering. The
// merge request is keyed by name, so completion order never affects it.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	req *models.SimulationRequest,
	directions map[string]float64,
	results map[string]models.WindowResult,
	colorize bool,
) (*models.MergedResult, error) {
	if len(results) != len(req.Parameters.Windows) {
		return nil, aggregationError(StageMerge,
			fmt.Errorf("refusing to merge %d of %d windows", len(results), len(req.Parameters.Windows)))
	}

	mergeReq := remote.MergeRequest{
		RoomPolygon: req.Parameters.RoomPolygon,
		Windows:     make(map[string]remote.MergeWindow, len(results)),
		Simulations: results,
	}
	for name := range results {
		mergeReq.Windows[name] = pipeline.MergeWindowFor(req.Parameters.Windows[name], directions[name])
	}

	merged, err := a.services.Merge(ctx, mergeReq)
	if err != nil {
		return nil, aggregationError(StageMerge, err)
	}

	rows, cols, err := merged.Result.Dims()
	if err != nil {
		return nil, aggregationError(StageMerge, err)
	}

	out := &models.MergedResult{
		DFMatrix:        merged.Result,
		RoomMask:        merged.Mask,
		Shape:           [2]int{rows, cols},
		Windows:         req.WindowNames(),
		DirectionAngles: directions,
	}
	if !colorize {
		return out, nil
	}

	statsReq := remote.StatsRequest{Result: merged.Result, Mask: merged.Mask}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := a.services.Statistics(gctx, statsReq)
		if err != nil {
			return aggregationError(StageStatistics, err)
		}
		out.Stats = stats
		return nil
	})
	g.Go(func() error {
		rgb, err := a.services.Colorize(gctx, statsReq)
		if err != nil {
			return aggregationError(StageColorize, err)
		}
		out.RGB = rgb
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().Float64("mean_df", out.Stats.Mean).Msg("Colorized merged result")
	return out, nil
}
