// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package metrics defines the Prometheus instruments exported on /metrics.
//
// Instruments cover inbound API traffic, outbound remote-service calls and their
// circuit breakers, per-window pipeline stages, orchestration runs, and
// authentication (including the JWKS key cache).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// remoteBuckets span sub-second geometry calls up to multi-minute simulations.
var remoteBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_api_requests_total",
			Help: "Total number of inbound API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_api_request_duration_seconds",
			Help:    "Duration of inbound API requests in seconds",
			Buckets: remoteBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_api_active_requests",
			Help: "Number of inbound API requests currently in flight",
		},
	)

	// Remote Service Metrics
	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_remote_call_duration_seconds",
			Help:    "Duration of outbound remote service calls, including retries",
			Buckets: remoteBuckets,
		},
		[]string{"service", "endpoint"},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_remote_calls_total",
			Help: "Total number of outbound remote service calls by outcome",
		},
		[]string{"service", "endpoint", "outcome"}, // outcome: success, timeout, connection_refused, upstream_error, malformed_response
	)

	RemoteRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_remote_retries_total",
			Help: "Total number of retry attempts against remote services",
		},
		[]string{"service", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Pipeline Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_pipeline_stage_duration_seconds",
			Help:    "Duration of one window pipeline stage",
			Buckets: remoteBuckets,
		},
		[]string{"stage"},
	)

	PipelineStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_pipeline_stage_failures_total",
			Help: "Total number of window pipelines that failed, by stage",
		},
		[]string{"stage"},
	)

	PipelineObstructionSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_pipeline_obstruction_skipped_total",
			Help: "Windows that supplied precomputed obstruction angles",
		},
	)

	// Orchestration Metrics
	OrchestrationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_orchestration_runs_total",
			Help: "Total number of orchestration runs by result",
		},
		[]string{"result"}, // result: success, validation_error, pipeline_error, aggregation_error
	)

	OrchestrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_orchestration_duration_seconds",
			Help:    "End-to-end duration of orchestration runs",
			Buckets: remoteBuckets,
		},
	)

	OrchestrationWindows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_orchestration_windows",
			Help:    "Number of windows per orchestration request",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	ActiveWindowPipelines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_active_window_pipelines",
			Help: "Number of window pipelines currently running",
		},
	)

	// Auth Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"mode", "result"}, // result: success or an auth error type
	)

	JWKSFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_jwks_fetches_total",
			Help: "Total number of JWKS key set fetches",
		},
		[]string{"result"}, // result: success, failure, throttled
	)

	JWKSKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_jwks_cached_keys",
			Help: "Number of signing keys currently cached",
		},
	)
)

// RecordAPIRequest records one completed inbound request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRemoteCall records the outcome and total duration of one remote call.
func RecordRemoteCall(service, endpoint, outcome string, duration time.Duration) {
	RemoteCallsTotal.WithLabelValues(service, endpoint, outcome).Inc()
	RemoteCallDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

// RecordRemoteRetry records one retry attempt.
func RecordRemoteRetry(service, endpoint string) {
	RemoteRetriesTotal.WithLabelValues(service, endpoint).Inc()
}

// RecordPipelineStage records a stage's duration and, when failed, its failure.
func RecordPipelineStage(stage string, duration time.Duration, failed bool) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if failed {
		PipelineStageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordOrchestration records one orchestration run.
func RecordOrchestration(result string, windows int, duration time.Duration) {
	OrchestrationRuns.WithLabelValues(result).Inc()
	OrchestrationWindows.Observe(float64(windows))
	OrchestrationDuration.Observe(duration.Seconds())
}

// RecordAuthAttempt records an authentication outcome.
func RecordAuthAttempt(mode, result string) {
	AuthAttempts.WithLabelValues(mode, result).Inc()
}

// RecordJWKSFetch records a key set fetch and, on success, the resulting key count.
func RecordJWKSFetch(result string, keys int) {
	JWKSFetches.WithLabelValues(result).Inc()
	if result == "success" {
		JWKSKeys.Set(float64(keys))
	}
}

// StatusLabel converts an HTTP status code to a label value.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
