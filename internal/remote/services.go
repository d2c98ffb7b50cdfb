// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/daylight-gateway/internal/config"
	"github.com/tomtom215/daylight-gateway/internal/models"
)

// Remote endpoints.
const (
	EndpointObstruction        = "/obstruction_multi"
	EndpointEncode             = "/encode"
	EndpointCalculateDirection = "/calculate-direction"
	EndpointReferencePoint     = "/get-reference-point"
	EndpointSimulate           = "/simulate"
	EndpointMerge              = "/merge"
	EndpointStats              = "/get_stats"
	EndpointColorize           = "/to_rgb"
)

// Services holds one client per remote service.
type Services struct {
	Obstruction *Client
	Encoder     *Client
	Model       *Client
	Merger      *Client
	Stats       *Client
}

// NewServices builds clients for every remote service from configuration.
// All clients share one pooled transport. The model client uses the
// simulation timeout; every other client uses the geometry timeout.
func NewServices(cfg *config.Config) *Services {
	httpClient := NewHTTPClient(cfg.Remote.MaxIdleConnsPerHost)

	build := func(service string) *Client {
		timeout := cfg.Remote.GeometryTimeout
		if service == config.ServiceModel {
			timeout = cfg.Remote.SimulationTimeout
		}
		return NewClient(Options{
			Service:         service,
			BaseURL:         cfg.Services.BaseURL(service),
			Timeout:         timeout,
			MaxRetries:      cfg.Remote.MaxRetries,
			RetryDelay:      cfg.Remote.RetryDelay,
			RateLimit:       cfg.Remote.RateLimit,
			RateBurst:       cfg.Remote.RateBurst,
			BreakerEnabled:  cfg.Remote.BreakerEnabled,
			BreakerOpenTime: cfg.Remote.BreakerOpenTime,
			HTTPClient:      httpClient,
		})
	}

	return &Services{
		Obstruction: build(config.ServiceObstruction),
		Encoder:     build(config.ServiceEncoder),
		Model:       build(config.ServiceModel),
		Merger:      build(config.ServiceMerger),
		Stats:       build(config.ServiceStats),
	}
}

// ByName returns the client for a service name.
func (s *Services) ByName(service string) (*Client, bool) {
	switch service {
	case config.ServiceObstruction:
		return s.Obstruction, true
	case config.ServiceEncoder:
		return s.Encoder, true
	case config.ServiceModel:
		return s.Model, true
	case config.ServiceMerger:
		return s.Merger, true
	case config.ServiceStats:
		return s.Stats, true
	default:
		return nil, false
	}
}

// ObstructionRequest is the obstruction service input for one reference point.
type ObstructionRequest struct {
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
	Z              float64     `json:"z"`
	DirectionAngle float64     `json:"direction_angle"`
	Mesh           [][]float64 `json:"mesh"`
	StartAngle     float64     `json:"start_angle"`
	EndAngle       float64     `json:"end_angle"`
	NumDirections  int         `json:"num_directions"`
}

// NewObstructionRequest fills the sampling defaults for a reference point.
func NewObstructionRequest(p models.Point3, directionAngle float64, mesh [][]float64) ObstructionRequest {
	return ObstructionRequest{
		X:              p.X,
		Y:              p.Y,
		Z:              p.Z,
		DirectionAngle: directionAngle,
		Mesh:           mesh,
		StartAngle:     models.ObstructionStartDegree,
		EndAngle:       models.ObstructionEndDegree,
		NumDirections:  models.ObstructionDirections,
	}
}

// ObstructionAngles computes the horizon and zenith angles for one point.
func (s *Services) ObstructionAngles(ctx context.Context, req ObstructionRequest) (*models.ObstructionResult, error) {
	resp, err := s.Obstruction.Call(ctx, EndpointObstruction, req, ContentJSON)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Data *models.ObstructionResult `json:"data"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, malformed(config.ServiceObstruction, EndpointObstruction, err)
	}
	result := wrapped.Data
	if result == nil {
		result = &models.ObstructionResult{}
		if err := resp.Decode(result); err != nil {
			return nil, malformed(config.ServiceObstruction, EndpointObstruction, err)
		}
	}
	if err := result.Validate(); err != nil {
		return nil, malformed(config.ServiceObstruction, EndpointObstruction, err)
	}
	return result, nil
}

// DirectionWindow is the corner geometry the encoder derives a direction from.
type DirectionWindow struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	Z1 float64 `json:"z1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
	Z2 float64 `json:"z2"`
}

// DirectionRequest asks the encoder for the outward direction of windows in a room.
type DirectionRequest struct {
	RoomPolygon [][]float64                `json:"room_polygon"`
	Windows     map[string]DirectionWindow `json:"windows"`
}

// CalculateDirection returns the encoder's direction angle, in radians, for
// each window in req. Every requested window must be present in the answer.
func (s *Services) CalculateDirection(ctx context.Context, req DirectionRequest) (map[string]float64, error) {
	resp, err := s.Encoder.Call(ctx, EndpointCalculateDirection, req, ContentJSON)
	if err != nil {
		return nil, err
	}

	var body struct {
		DirectionAngles map[string]float64 `json:"direction_angles"`
		DirectionAngle  map[string]float64 `json:"direction_angle"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, malformed(config.ServiceEncoder, EndpointCalculateDirection, err)
	}
	angles := body.DirectionAngles
	if len(angles) == 0 {
		angles = body.DirectionAngle
	}
	for name := range req.Windows {
		if _, ok := angles[name]; !ok {
			return nil, malformed(config.ServiceEncoder, EndpointCalculateDirection,
				fmt.Errorf("no direction angle for window %q", name))
		}
	}
	return angles, nil
}

// EncodeWindow is one window as sent to the encoder.
type EncodeWindow struct {
	X1               float64   `json:"x1"`
	Y1               float64   `json:"y1"`
	Z1               float64   `json:"z1"`
	X2               float64   `json:"x2"`
	Y2               float64   `json:"y2"`
	Z2               float64   `json:"z2"`
	WindowFrameRatio float64   `json:"window_frame_ratio"`
	WindowSillHeight *float64  `json:"window_sill_height,omitempty"`
	WindowHeight     *float64  `json:"window_height,omitempty"`
	DirectionAngle   float64   `json:"direction_angle"`
	Horizon          []float64 `json:"obstruction_angle_horizon"`
	Zenith           []float64 `json:"obstruction_angle_zenith"`
}

// EncodeParameters is the room description sent to the encoder.
type EncodeParameters struct {
	HeightRoofOverFloor     *float64                `json:"height_roof_over_floor,omitempty"`
	FloorHeightAboveTerrain *float64                `json:"floor_height_above_terrain,omitempty"`
	RoomPolygon             [][]float64             `json:"room_polygon"`
	Windows                 map[string]EncodeWindow `json:"windows"`
}

// EncodeRequest is the encoder input for one window.
type EncodeRequest struct {
	ModelType  string           `json:"model_type"`
	Parameters EncodeParameters `json:"parameters"`
}

// Encode returns the opaque encoded payload for a single-window request.
func (s *Services) Encode(ctx context.Context, window string, req EncodeRequest) (*models.EncodedPayload, error) {
	resp, err := s.Encoder.Call(ctx, EndpointEncode, req, ContentBinary)
	if err != nil {
		return nil, err
	}
	return &models.EncodedPayload{
		Window:      window,
		Data:        resp.Body,
		ContentType: resp.ContentType,
	}, nil
}

// Simulate runs the model on one encoded payload. Translation and rotation
// are fixed at zero.
func (s *Services) Simulate(ctx context.Context, payload *models.EncodedPayload) (*models.WindowResult, error) {
	form := &MultipartPayload{
		Files: []MultipartFile{{
			Field:       "file",
			Filename:    encodedFilename(payload),
			ContentType: payload.ContentType,
			Data:        payload.Data,
		}},
		Fields: map[string]string{
			"translation": `{"x":0,"y":0}`,
			"rotation":    "[0]",
		},
	}

	resp, err := s.Model.Call(ctx, EndpointSimulate, form, ContentMultipart)
	if err != nil {
		return nil, err
	}

	var body struct {
		Result     models.Matrix `json:"result"`
		Prediction models.Matrix `json:"prediction"`
		DFValues   models.Matrix `json:"df_values"`
		Data       models.Matrix `json:"data"`
		Mask       models.Matrix `json:"mask"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, malformed(config.ServiceModel, EndpointSimulate, err)
	}

	result := &models.WindowResult{Mask: body.Mask}
	switch {
	case len(body.Result) > 0:
		result.DFValues = body.Result
	case len(body.Prediction) > 0:
		result.DFValues = body.Prediction
	case len(body.DFValues) > 0:
		result.DFValues = body.DFValues
	default:
		result.DFValues = body.Data
	}
	if err := result.Normalize(); err != nil {
		return nil, malformed(config.ServiceModel, EndpointSimulate, err)
	}
	return result, nil
}

func encodedFilename(p *models.EncodedPayload) string {
	ext := ".png"
	if strings.Contains(p.ContentType, "octet-stream") || strings.Contains(p.ContentType, "zip") ||
		(len(p.Data) >= 2 && p.Data[0] == 'P' && p.Data[1] == 'K') {
		ext = ".npz"
	}
	return "encoded_" + p.Window + ext
}

// MergeWindow is the geometry of one window as sent to the merger.
type MergeWindow struct {
	X1             float64 `json:"x1"`
	Y1             float64 `json:"y1"`
	Z1             float64 `json:"z1"`
	X2             float64 `json:"x2"`
	Y2             float64 `json:"y2"`
	Z2             float64 `json:"z2"`
	DirectionAngle float64 `json:"direction_angle"`
}

// MergeRequest is the merger input. Maps are keyed by window name, so the
// encoded body does not depend on the order windows finished in.
type MergeRequest struct {
	RoomPolygon [][]float64                    `json:"room_polygon"`
	Windows     map[string]MergeWindow         `json:"windows"`
	Simulations map[string]models.WindowResult `json:"simulations"`
}

// MergeResponse is the merged matrix and room mask.
type MergeResponse struct {
	Result models.Matrix
	Mask   models.Matrix
}

// Merge combines per-window results into one room-shaped matrix.
func (s *Services) Merge(ctx context.Context, req MergeRequest) (*MergeResponse, error) {
	resp, err := s.Merger.Call(ctx, EndpointMerge, req, ContentJSON)
	if err != nil {
		return nil, err
	}

	var body struct {
		Result   models.Matrix `json:"result"`
		DFMatrix models.Matrix `json:"df_matrix"`
		Mask     models.Matrix `json:"mask"`
		RoomMask models.Matrix `json:"room_mask"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, malformed(config.ServiceMerger, EndpointMerge, err)
	}

	out := &MergeResponse{Result: body.Result, Mask: body.Mask}
	if len(out.Result) == 0 {
		out.Result = body.DFMatrix
	}
	if len(out.Mask) == 0 {
		out.Mask = body.RoomMask
	}

	merged := models.WindowResult{DFValues: out.Result, Mask: out.Mask}
	if err := merged.Normalize(); err != nil {
		return nil, malformed(config.ServiceMerger, EndpointMerge, err)
	}
	out.Result, out.Mask = merged.DFValues, merged.Mask
	return out, nil
}

// StatsRequest is the statistics and colorize input.
type StatsRequest struct {
	Result models.Matrix `json:"result"`
	Mask   models.Matrix `json:"mask"`
}

// Statistics summarizes a merged matrix.
func (s *Services) Statistics(ctx context.Context, req StatsRequest) (*models.Stats, error) {
	resp, err := s.Stats.Call(ctx, EndpointStats, req, ContentJSON)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Metrics *models.Stats `json:"metrics"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, malformed(config.ServiceStats, EndpointStats, err)
	}
	if wrapped.Metrics != nil {
		return wrapped.Metrics, nil
	}

	var flat models.Stats
	if err := resp.Decode(&flat); err != nil {
		return nil, malformed(config.ServiceStats, EndpointStats, err)
	}
	return &flat, nil
}

// Colorize renders a merged matrix to RGB. The image is returned as decoded
// JSON without interpretation.
func (s *Services) Colorize(ctx context.Context, req StatsRequest) (interface{}, error) {
	resp, err := s.Stats.Call(ctx, EndpointColorize, req, ContentJSON)
	if err != nil {
		return nil, err
	}

	var body struct {
		Result interface{} `json:"result"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, malformed(config.ServiceStats, EndpointColorize, err)
	}
	if body.Result == nil {
		return nil, malformed(config.ServiceStats, EndpointColorize, errors.New("missing result"))
	}
	return body.Result, nil
}

// Forward sends a raw JSON body to one service endpoint unchanged.
func (s *Services) Forward(ctx context.Context, service, endpoint string, body json.RawMessage, kind ContentKind) (*Response, error) {
	client, ok := s.ByName(service)
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}
	return client.Call(ctx, endpoint, body, kind)
}

func malformed(service, endpoint string, err error) *CallError {
	return &CallError{Service: service, Endpoint: endpoint, Kind: KindMalformedResponse, Err: err}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
