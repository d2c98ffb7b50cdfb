// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

type fakeServices struct {
	mu    sync.Mutex
	calls []Stage

	directionReq   remote.DirectionRequest
	obstructionReq remote.ObstructionRequest
	encodeReq      remote.EncodeRequest

	failAt Stage
	err    error
}

func (f *fakeServices) record(s Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
	if f.failAt == s {
		return f.err
	}
	return nil
}

func (f *fakeServices) CalculateDirection(_ context.Context, req remote.DirectionRequest) (map[string]float64, error) {
	f.directionReq = req
	if err := f.record(StageDirection); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(req.Windows))
	for name := range req.Windows {
		out[name] = 3 * math.Pi / 2
	}
	return out, nil
}

func (f *fakeServices) ObstructionAngles(_ context.Context, req remote.ObstructionRequest) (*models.ObstructionResult, error) {
	f.obstructionReq = req
	if err := f.record(StageObstruction); err != nil {
		return nil, err
	}
	return &models.ObstructionResult{Horizon: fill(64, 5), Zenith: fill(64, 7)}, nil
}

func (f *fakeServices) Encode(_ context.Context, window string, req remote.EncodeRequest) (*models.EncodedPayload, error) {
	f.encodeReq = req
	if err := f.record(StageEncode); err != nil {
		return nil, err
	}
	return &models.EncodedPayload{Window: window, Data: []byte("png")}, nil
}

func (f *fakeServices) Simulate(_ context.Context, p *models.EncodedPayload) (*models.WindowResult, error) {
	if err := f.record(StageSimulate); err != nil {
		return nil, err
	}
	return &models.WindowResult{DFValues: models.Matrix{{1, 2}}, Mask: models.Matrix{{1, 1}}}, nil
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func testRequest() *models.SimulationRequest {
	return &models.SimulationRequest{
		ModelType: "df_default",
		Parameters: &models.RoomParameters{
			HeightRoofOverFloor: ptr(2.8),
			RoomPolygon:         [][]float64{{0, 0}, {5, 0}, {5, 4}, {0, 4}},
			Windows: map[string]models.WindowSpec{
				"south": {
					X1: ptr(-0.6), Y1: ptr(0), Z1: ptr(0.9),
					X2: ptr(0.6), Y2: ptr(0), Z2: ptr(2.4),
					WindowFrameRatio: ptr(0.15),
				},
			},
		},
		Mesh: [][]float64{{-10, -5, 0}, {10, -5, 0}, {10, -5, 6}, {-10, -5, 6}},
	}
}

func TestWindow_RunsStagesInOrder(t *testing.T) {
	svc := &fakeServices{}
	w, err := New(testRequest(), "south", svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.State() != StatePending {
		t.Fatalf("initial state = %v, want pending", w.State())
	}

	outcome := w.Run(context.Background())
	if !outcome.Succeeded() {
		t.Fatalf("Run() outcome = %+v, want success", outcome)
	}
	if w.State() != StateSimulated {
		t.Errorf("State() = %v, want simulated", w.State())
	}

	want := []Stage{StageDirection, StageObstruction, StageEncode, StageSimulate}
	if len(svc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", svc.calls, want)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, svc.calls[i], want[i])
		}
	}

	dir := svc.directionReq
	if len(dir.RoomPolygon) != 4 || dir.Windows["south"].X1 != -0.6 || dir.Windows["south"].Z2 != 2.4 {
		t.Errorf("direction request = %+v, want room polygon and window corners", dir)
	}

	req := svc.obstructionReq
	if math.Abs(req.DirectionAngle-3*math.Pi/2) > 1e-9 {
		t.Errorf("obstruction direction_angle = %v, want 3π/2", req.DirectionAngle)
	}
	if req.X != 0 || req.Y != 0 || math.Abs(req.Z-1.65) > 1e-9 {
		t.Errorf("reference point = (%v, %v, %v), want (0, 0, 1.65)", req.X, req.Y, req.Z)
	}
	if len(req.Mesh) != 4 {
		t.Errorf("mesh points = %d, want 4", len(req.Mesh))
	}

	enc := svc.encodeReq.Parameters.Windows["south"]
	if len(enc.Horizon) != 64 || enc.Horizon[0] != 5 || enc.Zenith[0] != 7 {
		t.Errorf("encode window angles not enriched: %+v", enc)
	}
	if math.Abs(enc.DirectionAngle-3*math.Pi/2) > 1e-9 {
		t.Errorf("direction_angle = %v, want 3π/2", enc.DirectionAngle)
	}
}

func TestWindow_PrecomputedAnglesSkipObstruction(t *testing.T) {
	req := testRequest()
	spec := req.Parameters.Windows["south"]
	spec.Horizon = fill(64, 1)
	spec.Zenith = fill(64, 2)
	req.Parameters.Windows["south"] = spec

	svc := &fakeServices{}
	w, err := New(req, "south", svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.State() != StateObstructionDone {
		t.Fatalf("initial state = %v, want obstruction_done", w.State())
	}
	if outcome := w.Run(context.Background()); !outcome.Succeeded() {
		t.Fatalf("Run() outcome = %+v", outcome)
	}
	for _, s := range svc.calls {
		if s == StageObstruction {
			t.Error("obstruction called despite precomputed angles")
		}
	}
	if got := svc.encodeReq.Parameters.Windows["south"].Horizon[0]; got != 1 {
		t.Errorf("encoded horizon[0] = %v, want precomputed 1", got)
	}
}

func TestWindow_SuppliedDirectionSkipsEncoder(t *testing.T) {
	req := testRequest()
	spec := req.Parameters.Windows["south"]
	spec.DirectionAngle = ptr(1.25)
	req.Parameters.Windows["south"] = spec

	svc := &fakeServices{}
	w, err := New(req, "south", svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if outcome := w.Run(context.Background()); !outcome.Succeeded() {
		t.Fatalf("Run() outcome = %+v", outcome)
	}
	for _, s := range svc.calls {
		if s == StageDirection {
			t.Error("encoder asked for a direction the request already supplied")
		}
	}
	if w.DirectionAngle() != 1.25 || svc.obstructionReq.DirectionAngle != 1.25 {
		t.Errorf("direction = %v (obstruction %v), want 1.25", w.DirectionAngle(), svc.obstructionReq.DirectionAngle)
	}
	if got := svc.encodeReq.Parameters.Windows["south"].DirectionAngle; got != 1.25 {
		t.Errorf("encode direction_angle = %v, want 1.25", got)
	}
}

func TestWindow_FailureTagsStageAndStops(t *testing.T) {
	for _, stage := range []Stage{StageDirection, StageObstruction, StageEncode, StageSimulate} {
		t.Run(string(stage), func(t *testing.T) {
			boom := errors.New("boom")
			svc := &fakeServices{failAt: stage, err: boom}
			w, err := New(testRequest(), "south", svc)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			outcome := w.Run(context.Background())
			if outcome.Err == nil {
				t.Fatal("Run() error = nil, want stage error")
			}
			if outcome.Err.Stage != stage || outcome.Err.Window != "south" {
				t.Errorf("StageError = %+v, want window south stage %s", outcome.Err, stage)
			}
			if !errors.Is(outcome.Err, boom) {
				t.Errorf("StageError does not wrap cause")
			}
			if w.State() != StateFailed {
				t.Errorf("State() = %v, want failed", w.State())
			}
			if last := svc.calls[len(svc.calls)-1]; last != stage {
				t.Errorf("last call = %s, want %s", last, stage)
			}

			calls := len(svc.calls)
			again := w.Run(context.Background())
			if again.Err != outcome.Err || len(svc.calls) != calls {
				t.Error("failed window resumed")
			}
		})
	}
}

func TestWindow_RunUntilEncoded(t *testing.T) {
	svc := &fakeServices{}
	w, err := New(testRequest(), "south", svc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.RunUntil(context.Background(), StateEncodedDone); err != nil {
		t.Fatalf("RunUntil() error = %v", err)
	}
	if w.State() != StateEncodedDone || w.Payload() == nil {
		t.Errorf("State() = %v, payload = %v", w.State(), w.Payload())
	}
	if len(svc.calls) != 3 || svc.calls[2] != StageEncode {
		t.Errorf("calls = %v, want direction, obstruction and encode only", svc.calls)
	}
	if !errors.Is(w.Err(), ErrNotFailed) {
		t.Errorf("Err() = %v, want ErrNotFailed", w.Err())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(testRequest(), "north", &fakeServices{}); err == nil {
		t.Error("New() for unknown window error = nil")
	}

	req := testRequest()
	spec := req.Parameters.Windows["south"]
	spec.X2 = ptr(-0.6)
	req.Parameters.Windows["south"] = spec
	if _, err := New(req, "south", &fakeServices{}); err == nil {
		t.Error("New() for degenerate window error = nil")
	}
}

func TestState_String(t *testing.T) {
	if StateEncodedDone.String() != "encoded_done" || !StateFailed.Terminal() || StatePending.Terminal() {
		t.Error("unexpected state naming or terminality")
	}
}
