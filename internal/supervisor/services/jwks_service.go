// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package services

import (
	"context"
	"time"

	"github.com/tomtom215/daylight-gateway/internal/logging"
)

// KeySetRefresher is satisfied by *auth.KeySet.
type KeySetRefresher interface {
	Refresh(ctx context.Context) error
	Len() int
	LastFetched() time.Time
}

// KeySetRefreshService refreshes a JWKS cache on a fixed interval so key
// rotations are picked up before a token with an unknown kid arrives.
//
// A failed refresh is logged and retried on the next tick; the key set keeps
// serving its previous keys, so a refresh failure never crashes the service.
type KeySetRefreshService struct {
	keys     KeySetRefresher
	interval time.Duration
	name     string
}

// NewKeySetRefreshService creates the refresher. interval defaults to 1h.
func NewKeySetRefreshService(keys KeySetRefresher, interval time.Duration) *KeySetRefreshService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &KeySetRefreshService{
		keys:     keys,
		interval: interval,
		name:     "jwks-refresher",
	}
}

// Serve implements suture.Service.
func (s *KeySetRefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *KeySetRefreshService) refresh(ctx context.Context) {
	if err := s.keys.Refresh(ctx); err != nil {
		event := logging.Warn().Err(err).Int("cached_keys", s.keys.Len())
		if last := s.keys.LastFetched(); !last.IsZero() {
			event = event.Dur("keys_age", time.Since(last))
		}
		event.Msg("JWKS refresh failed, keeping cached keys")
		return
	}
	logging.Debug().Int("keys", s.keys.Len()).Msg("JWKS refreshed")
}

// String implements fmt.Stringer for suture's log messages.
func (s *KeySetRefreshService) String() string {
	return s.name
}
