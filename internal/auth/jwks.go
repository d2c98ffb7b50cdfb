// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/daylight-gateway/internal/logging"
	"github.com/tomtom215/daylight-gateway/internal/metrics"
)

const maxJWKSBytes = 1 << 20

// KeySet caches the RSA signing keys published at a JWKS URL.
//
// Readers never block on a refresh: they see the previous keys until the new
// set is swapped in. At most one fetch is in flight at a time.
type KeySet struct {
	url     string
	client  *http.Client
	timeout time.Duration

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time

	group   singleflight.Group
	refetch *rate.Limiter
}

// NewKeySet creates an empty key set. Unknown-kid refetches are limited to
// one per minRefresh.
func NewKeySet(url string, client *http.Client, timeout, minRefresh time.Duration) *KeySet {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if minRefresh <= 0 {
		minRefresh = 30 * time.Second
	}
	return &KeySet{
		url:     url,
		client:  client,
		timeout: timeout,
		keys:    make(map[string]*rsa.PublicKey),
		refetch: rate.NewLimiter(rate.Every(minRefresh), 1),
	}
}

// URL returns the JWKS endpoint.
func (k *KeySet) URL() string {
	return k.url
}

// Len returns the number of cached keys.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// LastFetched returns the time of the last successful fetch.
func (k *KeySet) LastFetched() time.Time {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.fetched
}

// Key returns the key for kid. An unknown kid triggers a throttled refresh,
// which is how key rotation is picked up between scheduled refreshes.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}

	if !k.refetch.Allow() {
		metrics.RecordJWKSFetch("throttled", 0)
		if k.Len() == 0 {
			return nil, fmt.Errorf("%w: no keys cached", ErrKeySetUnavailable)
		}
		return nil, fmt.Errorf("%w: unknown key id %q", ErrInvalidJWT, kid)
	}

	if err := k.Refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unknown key id %q", ErrInvalidJWT, kid)
}

func (k *KeySet) lookup(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if kid == "" && len(k.keys) == 1 {
		for _, key := range k.keys {
			return key, true
		}
	}
	key, ok := k.keys[kid]
	return key, ok
}

// Refresh fetches the key set. Concurrent callers share one fetch. On
// failure the previous keys stay in place.
func (k *KeySet) Refresh(ctx context.Context) error {
	_, err, _ := k.group.Do("jwks", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
		defer cancel()

		keys, err := k.fetch(fetchCtx)
		if err != nil {
			metrics.RecordJWKSFetch("failure", 0)
			logging.Warn().Err(err).Str("jwks_url", k.url).Msg("JWKS fetch failed")
			return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
		}

		k.mu.Lock()
		k.keys = keys
		k.fetched = time.Now()
		k.mu.Unlock()

		metrics.RecordJWKSFetch("success", len(keys))
		logging.Debug().Int("keys", len(keys)).Str("jwks_url", k.url).Msg("JWKS refreshed")
		return nil, nil
	})
	return err
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS fetch failed with status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		key, err := rsaPublicKey(jwk.N, jwk.E)
		if err != nil {
			logging.Warn().Err(err).Str("kid", jwk.Kid).Msg("Skipping malformed JWKS key")
			continue
		}
		keys[jwk.Kid] = key
	}
	if len(keys) == 0 {
		return nil, errors.New("JWKS contains no usable RSA signing keys")
	}
	return keys, nil
}

func rsaPublicKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64URLDecode(n)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eBytes, err := base64URLDecode(e)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 || len(eBytes) > 4 {
		return nil, errors.New("invalid key parameters")
	}

	exp := 0
	for _, b := range eBytes {
		exp = exp<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: exp}, nil
}

// base64URLDecode accepts padded and unpadded base64url.
func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
