// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/auth"
	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/models"
	"github.com/tomtom215/daylight-gateway/internal/orchestrator"
	"github.com/tomtom215/daylight-gateway/internal/remote"
)

const testToken = "test-secret-token"

type fakeRunner struct {
	mu         sync.Mutex
	calls      int
	lastWindow string
	result     *models.MergedResult
	payload    *models.EncodedPayload
	err        error
}

func (f *fakeRunner) Run(_ context.Context, _ *models.SimulationRequest) (*models.MergedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeRunner) EncodeWindow(_ context.Context, _ *models.SimulationRequest, name string) (*models.EncodedPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastWindow = name
	return f.payload, f.err
}

type forwardCall struct {
	service  string
	endpoint string
	body     json.RawMessage
	kind     remote.ContentKind
}

type fakeForwarder struct {
	mu    sync.Mutex
	calls []forwardCall
	resp  *remote.Response
	err   error
}

func (f *fakeForwarder) Forward(_ context.Context, service, endpoint string, body json.RawMessage, kind remote.ContentKind) (*remote.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, forwardCall{service: service, endpoint: endpoint, body: body, kind: kind})
	return f.resp, f.err
}

func (f *fakeForwarder) last(t *testing.T) forwardCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("forwarder was not called")
	}
	return f.calls[len(f.calls)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Version: "1.2.3"},
		Security: config.SecurityConfig{
			AuthMode:          config.AuthModeToken,
			APIToken:          testToken,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, runner Runner, fwd Forwarder) http.Handler {
	t.Helper()
	v, err := auth.NewValidator(context.Background(), &cfg.Security)
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	h := NewHandler(cfg, runner, fwd)
	return NewRouter(h, v, ChiMiddlewareConfigFrom(&cfg.Security)).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if resp.Status != "error" {
		t.Errorf("status field = %q, want error", resp.Status)
	}
	return resp
}

const runBody = `{
	"model_type": "df_default",
	"parameters": {
		"height_roof_over_floor": 2.7,
		"floor_height_above_terrain": 0,
		"room_polygon": [[0,0],[5,0],[5,4],[0,4]],
		"windows": {"south": {"x1":-0.6,"y1":0,"z1":0.9,"x2":0.6,"y2":0,"z2":2.4,"window_frame_ratio":0.15}}
	},
	"mesh": [[0,-2,0],[1,-2,0],[1,-2,3],[0,-2,3]]
}`

func TestStatusAndHealth(t *testing.T) {
	h := newTestRouter(t, testConfig(), &fakeRunner{}, &fakeForwarder{})

	rec := doRequest(t, h, http.MethodGet, "/", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "running" || status.Version != "1.2.3" || status.AuthMode != config.AuthModeToken {
		t.Errorf("GET / = %+v, want running/1.2.3/token", status)
	}

	rec = doRequest(t, h, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("GET /health body = %s", rec.Body.String())
	}
}

func TestRun_Authentication(t *testing.T) {
	runner := &fakeRunner{result: &models.MergedResult{}}
	h := newTestRouter(t, testConfig(), runner, &fakeForwarder{})

	tests := []struct {
		name      string
		header    string
		status    int
		errorType string
	}{
		{"missing header", "", http.StatusBadRequest, "MISSING_AUTHORIZATION"},
		{"wrong scheme", "Basic abc", http.StatusBadRequest, "INVALID_AUTH_FORMAT"},
		{"wrong token", "Bearer nope", http.StatusForbidden, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/run", strings.NewReader(runBody))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec).ErrorType; got != tt.errorType {
				t.Errorf("error_type = %q, want %q", got, tt.errorType)
			}
		})
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times for rejected requests, want 0", runner.calls)
	}
}

func TestRun_Success(t *testing.T) {
	runner := &fakeRunner{result: &models.MergedResult{
		DFMatrix: models.Matrix{{1, 2}, {3, 4}},
		RoomMask: models.Matrix{{1, 1}, {1, 0}},
		Shape:    [2]int{2, 2},
		Windows:  []string{"south"},
	}}
	h := newTestRouter(t, testConfig(), runner, &fakeForwarder{})

	rec := doRequest(t, h, http.MethodPost, "/v1/run", runBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string              `json:"status"`
		Result models.MergedResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" {
		t.Errorf("status field = %q, want success", resp.Status)
	}
	if resp.Result.Shape != [2]int{2, 2} {
		t.Errorf("shape = %v, want [2 2]", resp.Result.Shape)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRun_PipelineErrorCarriesWindowAndStage(t *testing.T) {
	runner := &fakeRunner{err: &orchestrator.Error{
		Type:    orchestrator.TypeUpstream,
		Window:  "south",
		Stage:   "simulate",
		Message: "model returned 500",
	}}
	h := newTestRouter(t, testConfig(), runner, &fakeForwarder{})

	req := httptest.NewRequest(http.MethodPost, "/v1/run", strings.NewReader(runBody))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.ErrorType != "UPSTREAM_ERROR" || resp.Window != "south" || resp.Stage != "simulate" {
		t.Errorf("error = %+v, want UPSTREAM_ERROR at south/simulate", resp)
	}
	if resp.RequestID != "req-42" {
		t.Errorf("request_id = %q, want req-42", resp.RequestID)
	}
}

func TestRun_MalformedBody(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestRouter(t, testConfig(), runner, &fakeForwarder{})

	for _, body := range []string{"", "{not json", "[1,2"} {
		rec := doRequest(t, h, http.MethodPost, "/v1/run", body, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if got := decodeError(t, rec).ErrorType; got != "VALIDATION_ERROR" {
			t.Errorf("body %q: error_type = %q, want VALIDATION_ERROR", body, got)
		}
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times, want 0", runner.calls)
	}
}

func TestRun_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 64
	runner := &fakeRunner{}
	h := newTestRouter(t, cfg, runner, &fakeForwarder{})

	rec := doRequest(t, h, http.MethodPost, "/v1/run", runBody, true)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times, want 0", runner.calls)
	}
}

func TestEncode_ReturnsPayloadBytes(t *testing.T) {
	runner := &fakeRunner{payload: &models.EncodedPayload{
		Window:      "south",
		Data:        []byte{0x89, 'P', 'N', 'G'},
		ContentType: "image/png",
	}}
	h := newTestRouter(t, testConfig(), runner, &fakeForwarder{})

	rec := doRequest(t, h, http.MethodPost, "/v1/encode?window=south", runBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if rec.Body.String() != "\x89PNG" {
		t.Errorf("body = %q, want PNG bytes", rec.Body.String())
	}
	if runner.lastWindow != "south" {
		t.Errorf("window = %q, want south", runner.lastWindow)
	}
}

func TestForwardRoutes(t *testing.T) {
	tests := []struct {
		path     string
		service  string
		endpoint string
		kind     remote.ContentKind
	}{
		{"/v1/encode_raw", config.ServiceEncoder, remote.EndpointEncode, remote.ContentBinary},
		{"/v1/calculate-direction", config.ServiceEncoder, remote.EndpointCalculateDirection, remote.ContentJSON},
		{"/v1/get-reference-point", config.ServiceEncoder, remote.EndpointReferencePoint, remote.ContentJSON},
		{"/v1/merge", config.ServiceMerger, remote.EndpointMerge, remote.ContentJSON},
		{"/v1/stats", config.ServiceStats, remote.EndpointStats, remote.ContentJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			fwd := &fakeForwarder{resp: &remote.Response{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        []byte(`{"upstream":true}`),
			}}
			h := newTestRouter(t, testConfig(), &fakeRunner{}, fwd)

			rec := doRequest(t, h, http.MethodPost, tt.path, `{"a":1}`, true)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if rec.Body.String() != `{"upstream":true}` {
				t.Errorf("body = %s, want upstream body verbatim", rec.Body.String())
			}

			call := fwd.last(t)
			if call.service != tt.service || call.endpoint != tt.endpoint || call.kind != tt.kind {
				t.Errorf("forwarded to %s%s (%v), want %s%s (%v)",
					call.service, call.endpoint, call.kind, tt.service, tt.endpoint, tt.kind)
			}
			if string(call.body) != `{"a":1}` {
				t.Errorf("forwarded body = %s, want request body verbatim", call.body)
			}
		})
	}
}

func TestForward_RejectsNonObject(t *testing.T) {
	fwd := &fakeForwarder{}
	h := newTestRouter(t, testConfig(), &fakeRunner{}, fwd)

	rec := doRequest(t, h, http.MethodPost, "/v1/merge", `[1,2,3]`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(fwd.calls) != 0 {
		t.Errorf("forwarder called %d times, want 0", len(fwd.calls))
	}
}

func TestForward_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorType string
	}{
		{
			name:      "upstream 5xx",
			err:       &remote.CallError{Service: "merger", Endpoint: "/merge", Kind: remote.KindUpstream, StatusCode: 500},
			status:    http.StatusBadGateway,
			errorType: "UPSTREAM_ERROR",
		},
		{
			name:      "upstream 4xx",
			err:       &remote.CallError{Service: "merger", Endpoint: "/merge", Kind: remote.KindUpstream, StatusCode: 422},
			status:    http.StatusBadGateway,
			errorType: "UPSTREAM_ERROR",
		},
		{
			name:      "upstream 403",
			err:       &remote.CallError{Service: "merger", Endpoint: "/merge", Kind: remote.KindUpstream, StatusCode: 403},
			status:    http.StatusBadGateway,
			errorType: "AUTHORIZATION_ERROR",
		},
		{
			name:      "timeout",
			err:       &remote.CallError{Service: "merger", Endpoint: "/merge", Kind: remote.KindTimeout},
			status:    http.StatusGatewayTimeout,
			errorType: "TIMEOUT_ERROR",
		},
		{
			name:      "connection refused",
			err:       &remote.CallError{Service: "merger", Endpoint: "/merge", Kind: remote.KindConnectionRefused, Err: errors.New("dial tcp: refused")},
			status:    http.StatusServiceUnavailable,
			errorType: "CONNECTION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, testConfig(), &fakeRunner{}, &fakeForwarder{err: tt.err})

			rec := doRequest(t, h, http.MethodPost, "/v1/merge", `{"a":1}`, true)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			resp := decodeError(t, rec)
			if resp.ErrorType != tt.errorType {
				t.Errorf("error_type = %q, want %q", resp.ErrorType, tt.errorType)
			}
			if resp.Stage != config.ServiceMerger {
				t.Errorf("stage = %q, want %q", resp.Stage, config.ServiceMerger)
			}
		})
	}
}

func TestObstruction_FillsDefaults(t *testing.T) {
	fwd := &fakeForwarder{resp: &remote.Response{StatusCode: 200, ContentType: "application/json", Body: []byte(`{}`)}}
	h := newTestRouter(t, testConfig(), &fakeRunner{}, fwd)

	body := `{"x1":-0.6,"y1":0,"z1":0.9,"x2":0.6,"y2":0,"z2":2.4,"direction_angle":1.5,"mesh":[[0,0,0],[1,0,0],[1,1,0]]}`
	rec := doRequest(t, h, http.MethodPost, "/v1/obstruction", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	call := fwd.last(t)
	if call.service != config.ServiceObstruction || call.endpoint != remote.EndpointObstruction {
		t.Errorf("forwarded to %s%s, want obstruction%s", call.service, call.endpoint, remote.EndpointObstruction)
	}

	var sent map[string]interface{}
	if err := json.Unmarshal(call.body, &sent); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"x": 0, "y": 0, "z": 1.65,
		"start_angle": 17.5, "end_angle": 162.5, "num_directions": 64,
		"direction_angle": 1.5,
	}
	for k, v := range want {
		got, ok := sent[k].(float64)
		if !ok || got != v {
			t.Errorf("%s = %v, want %v", k, sent[k], v)
		}
	}
	if _, ok := sent["x1"]; ok {
		t.Error("corner fields were forwarded")
	}
}

func TestFillObstructionDefaults(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]interface{}
		wantErr bool
	}{
		{
			name:   "point given",
			fields: map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0, "mesh": []interface{}{}},
		},
		{
			name:   "caller overrides sweep",
			fields: map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0, "mesh": []interface{}{}, "num_directions": 32.0},
		},
		{
			name:    "missing corner",
			fields:  map[string]interface{}{"x1": 1.0, "y1": 2.0, "mesh": []interface{}{}},
			wantErr: true,
		},
		{
			name:    "non-numeric point",
			fields:  map[string]interface{}{"x": "1", "y": 2.0, "z": 3.0, "mesh": []interface{}{}},
			wantErr: true,
		},
		{
			name:    "missing mesh",
			fields:  map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fillObstructionDefaults(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Fatalf("fillObstructionDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	fields := map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0, "mesh": []interface{}{}, "num_directions": 32.0}
	if err := fillObstructionDefaults(fields); err != nil {
		t.Fatal(err)
	}
	if fields["num_directions"] != 32.0 {
		t.Errorf("num_directions = %v, want caller value 32", fields["num_directions"])
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	h := newTestRouter(t, testConfig(), &fakeRunner{}, &fakeForwarder{})

	rec := doRequest(t, h, http.MethodGet, "/nope", "", false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := decodeError(t, rec).ErrorType; got != "NOT_FOUND" {
		t.Errorf("error_type = %q, want NOT_FOUND", got)
	}

	rec = doRequest(t, h, http.MethodPut, "/health", "", false)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 1
	cfg.Security.RateLimitWindow = time.Minute
	h := newTestRouter(t, cfg, &fakeRunner{result: &models.MergedResult{}}, &fakeForwarder{})

	if rec := doRequest(t, h, http.MethodPost, "/v1/run", runBody, true); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := doRequest(t, h, http.MethodPost, "/v1/run", runBody, true)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if got := decodeError(t, rec).ErrorType; got != "RATE_LIMITED" {
		t.Errorf("error_type = %q, want RATE_LIMITED", got)
	}

	// Public routes are not limited.
	for i := 0; i < 3; i++ {
		if rec := doRequest(t, h, http.MethodGet, "/health", "", false); rec.Code != http.StatusOK {
			t.Errorf("GET /health #%d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(t, testConfig(), &fakeRunner{}, &fakeForwarder{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/run", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("preflight missing Access-Control-Allow-Origin; headers = %v", rec.Header())
	}
}
