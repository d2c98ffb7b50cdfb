// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package remote

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
)

// breaker guards one remote service. A call counts as a breaker failure only
// when the service itself looks unhealthy: transport errors, timeouts, 5xx
// and malformed bodies. 4xx responses and caller cancellations count as
// successes so a burst of bad client input cannot open the circuit.
type breaker struct {
	cb   *gobreaker.CircuitBreaker[*Response]
	name string
}

func newBreaker(service string, openTimeout time.Duration) *breaker {
	name := "remote-" + service

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     openTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).Msg("Opening circuit")
				return true
			}
			return false
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			ce, ok := AsCallError(err)
			if !ok {
				return false
			}
			return ce.IsClientError() || ce.Kind == KindCanceled
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).
				Str("to", stateToString(to)).Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &breaker{cb: cb, name: name}
}

// execute runs fn through the breaker. Rejections are returned as
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (b *breaker) execute(fn func() (*Response, error)) (*Response, error) {
	resp, err := b.cb.Execute(fn)
	if err != nil {
		if isBreakerRejection(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).
			Set(float64(b.cb.Counts().ConsecutiveFailures))
		return resp, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return resp, nil
}

func (b *breaker) state() gobreaker.State {
	return b.cb.State()
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
