// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

// Services is the subset of remote calls a window pipeline makes.
// *remote.Services satisfies it.
type Services interface {
	CalculateDirection(ctx context.Context, req remote.DirectionRequest) (map[string]float64, error)
	ObstructionAngles(ctx context.Context, req remote.ObstructionRequest) (*models.ObstructionResult, error)
	Encode(ctx context.Context, window string, req remote.EncodeRequest) (*models.EncodedPayload, error)
	Simulate(ctx context.Context, payload *models.EncodedPayload) (*models.WindowResult, error)
}

// ErrNotFailed is returned by Err when the window has not failed.
var ErrNotFailed = errors.New("window has not failed")

// Window is the pipeline for one window of one request. It is not safe for
// concurrent use; the orchestrator gives each window its own goroutine.
type Window struct {
	name      string
	request   *models.SimulationRequest
	spec      models.WindowSpec
	direction float64
	oriented  bool
	services  Services

	state   State
	failure *StageError

	angles  *models.ObstructionResult
	payload *models.EncodedPayload
	result  *models.WindowResult
}

// New prepares a pipeline for one window. A window without a direction angle
// gets one from the encoder before any other stage runs.
func New(req *models.SimulationRequest, name string, services Services) (*Window, error) {
	if req == nil || req.Parameters == nil {
		return nil, errors.New("request has no parameters")
	}
	spec, ok := req.Parameters.Windows[name]
	if !ok {
		return nil, fmt.Errorf("window %q not found", name)
	}
	if spec.DirectionAngle == nil && !spec.HasPlanExtent() {
		return nil, fmt.Errorf("window %q has no horizontal extent and no direction_angle", name)
	}

	w := &Window{
		name:     name,
		request:  req,
		spec:     spec,
		services: services,
		state:    StatePending,
	}
	if spec.DirectionAngle != nil {
		w.direction = *spec.DirectionAngle
		w.oriented = true
	}
	if spec.HasPrecomputedAngles() {
		w.angles = &models.ObstructionResult{Horizon: spec.Horizon, Zenith: spec.Zenith}
		w.state = StateObstructionDone
		metrics.PipelineObstructionSkipped.Inc()
	}
	return w, nil
}

// Name returns the window name.
func (w *Window) Name() string { return w.name }

// State returns the current state.
func (w *Window) State() State { return w.state }

// DirectionAngle returns the direction angle in radians. It is only
// meaningful once the window has left Pending.
func (w *Window) DirectionAngle() float64 { return w.direction }

// Angles returns the obstruction angles once ObstructionDone is reached.
func (w *Window) Angles() *models.ObstructionResult { return w.angles }

// Payload returns the encoded payload once EncodedDone is reached.
func (w *Window) Payload() *models.EncodedPayload { return w.payload }

// Result returns the simulation result once Simulated is reached.
func (w *Window) Result() *models.WindowResult { return w.result }

// Err returns the stage failure, or ErrNotFailed.
func (w *Window) Err() error {
	if w.failure == nil {
		return ErrNotFailed
	}
	return w.failure
}

// Run drives the window to a terminal state.
func (w *Window) Run(ctx context.Context) Outcome {
	_ = w.RunUntil(ctx, StateSimulated)
	if w.failure != nil {
		return Outcome{Window: w.name, Err: w.failure}
	}
	return Outcome{Window: w.name, Result: w.result}
}

// RunUntil advances the window until it reaches target or fails. It returns
// the *StageError of a failed window.
func (w *Window) RunUntil(ctx context.Context, target State) error {
	if target == StateFailed {
		return fmt.Errorf("cannot run to %s", target)
	}
	for w.state < target {
		if err := w.step(ctx); err != nil {
			return err
		}
	}
	if w.failure != nil {
		return w.failure
	}
	return nil
}

// step runs the next stage: direction resolution if still needed, otherwise
// the transition leaving the current state.
func (w *Window) step(ctx context.Context) error {
	stage, ok := w.state.next()
	if !ok {
		if w.failure != nil {
			return w.failure
		}
		return nil
	}
	if !w.oriented {
		stage = StageDirection
	}

	log := logging.Ctx(ctx).With().Str("window", w.name).Str("stage", string(stage)).Logger()
	log.Debug().Str("from", w.state.String()).Msg("Starting pipeline stage")

	start := time.Now()
	var err error
	switch stage {
	case StageDirection:
		err = w.resolveDirection(ctx)
	case StageObstruction:
		err = w.obstruction(ctx)
	case StageEncode:
		err = w.encode(ctx)
	case StageSimulate:
		err = w.simulate(ctx)
	}
	metrics.RecordPipelineStage(string(stage), time.Since(start), err != nil)

	if err != nil {
		w.failure = &StageError{Window: w.name, Stage: stage, Err: err}
		w.state = StateFailed
		log.Warn().Err(err).Msg("Pipeline stage failed")
		return w.failure
	}

	log.Debug().Str("to", w.state.String()).Dur("duration", time.Since(start)).Msg("Pipeline stage complete")
	return nil
}

// resolveDirection asks the encoder for this window's direction angle. It
// does not change state.
func (w *Window) resolveDirection(ctx context.Context) error {
	req := remote.DirectionRequest{
		RoomPolygon: w.request.Parameters.RoomPolygon,
		Windows: map[string]remote.DirectionWindow{
			w.name: {
				X1: value(w.spec.X1), Y1: value(w.spec.Y1), Z1: value(w.spec.Z1),
				X2: value(w.spec.X2), Y2: value(w.spec.Y2), Z2: value(w.spec.Z2),
			},
		},
	}
	angles, err := w.services.CalculateDirection(ctx, req)
	if err != nil {
		return err
	}
	w.direction = angles[w.name]
	w.oriented = true
	return nil
}

func (w *Window) obstruction(ctx context.Context) error {
	req := remote.NewObstructionRequest(w.spec.ReferencePoint(), w.direction, w.request.Mesh)
	angles, err := w.services.ObstructionAngles(ctx, req)
	if err != nil {
		return err
	}
	w.angles = angles
	w.state = StateObstructionDone
	return nil
}

func (w *Window) encode(ctx context.Context) error {
	if w.angles == nil {
		return errors.New("obstruction angles missing")
	}
	payload, err := w.services.Encode(ctx, w.name, w.encodeRequest())
	if err != nil {
		return err
	}
	w.payload = payload
	w.state = StateEncodedDone
	return nil
}

func (w *Window) simulate(ctx context.Context) error {
	if w.payload == nil {
		return errors.New("encoded payload missing")
	}
	result, err := w.services.Simulate(ctx, w.payload)
	if err != nil {
		return err
	}
	w.result = result
	w.state = StateSimulated
	return nil
}

// encodeRequest is the room parameters with only this window, enriched with
// its direction angle and obstruction angles.
func (w *Window) encodeRequest() remote.EncodeRequest {
	p := w.request.Parameters
	return remote.EncodeRequest{
		ModelType: w.request.ModelType,
		Parameters: remote.EncodeParameters{
			HeightRoofOverFloor:     p.HeightRoofOverFloor,
			FloorHeightAboveTerrain: p.FloorHeightAboveTerrain,
			RoomPolygon:             p.RoomPolygon,
			Windows: map[string]remote.EncodeWindow{
				w.name: EncodeWindowFor(w.spec, w.direction, w.angles),
			},
		},
	}
}

// EncodeWindowFor builds the encoder view of one window.
func EncodeWindowFor(spec models.WindowSpec, direction float64, angles *models.ObstructionResult) remote.EncodeWindow {
	ew := remote.EncodeWindow{
		X1:               value(spec.X1),
		Y1:               value(spec.Y1),
		Z1:               value(spec.Z1),
		X2:               value(spec.X2),
		Y2:               value(spec.Y2),
		Z2:               value(spec.Z2),
		WindowFrameRatio: value(spec.WindowFrameRatio),
		WindowSillHeight: spec.WindowSillHeight,
		WindowHeight:     spec.WindowHeight,
		DirectionAngle:   direction,
	}
	if angles != nil {
		ew.Horizon = angles.Horizon
		ew.Zenith = angles.Zenith
	}
	return ew
}

// MergeWindowFor builds the merger view of one window.
func MergeWindowFor(spec models.WindowSpec, direction float64) remote.MergeWindow {
	return remote.MergeWindow{
		X1:             value(spec.X1),
		Y1:             value(spec.Y1),
		Z1:             value(spec.Z1),
		X2:             value(spec.X2),
		Y2:             value(spec.Y2),
		Z2:             value(spec.Z2),
		DirectionAngle: direction,
	}
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
