// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

// Package config loads the gateway configuration.
//
// Configuration is layered with koanf: struct defaults, then an optional YAML
// file, then environment variables. Load returns one validated *Config which
// is treated as immutable and passed by pointer to every component; nothing
// in request handling reads the process environment.
package config

import (
	"strings"
	"time"
)

// Config is the complete gateway configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Services      ServicesConfig      `koanf:"services"`
	Remote        RemoteConfig        `koanf:"remote"`
	Orchestration OrchestrationConfig `koanf:"orchestration"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds inbound HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// WriteTimeout must cover a full orchestration run, which includes
	// simulation calls measured in minutes.
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	MaxBodyBytes int64  `koanf:"max_body_bytes"`
	Version      string `koanf:"version"`
}

// Deployment modes select default hostnames for the remote services.
const (
	DeploymentLocal  = "local"
	DeploymentHosted = "hosted"
)

// ServicesConfig holds the base URLs of the remote computation services.
// An empty URL falls back to the deployment-mode default (see BaseURL).
type ServicesConfig struct {
	DeploymentMode string `koanf:"deployment_mode"`
	ObstructionURL string `koanf:"obstruction_url"`
	EncoderURL     string `koanf:"encoder_url"`
	ModelURL       string `koanf:"model_url"`
	MergerURL      string `koanf:"merger_url"`
	StatsURL       string `koanf:"stats_url"`
}

// RemoteConfig holds the outbound call policy shared by every remote service client.
type RemoteConfig struct {
	GeometryTimeout   time.Duration `koanf:"geometry_timeout"`
	SimulationTimeout time.Duration `koanf:"simulation_timeout"`

	// MaxRetries is the number of extra attempts after a connection failure or 5xx.
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`

	// RateLimit caps outbound requests per second per service. 0 disables the limiter.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	BreakerEnabled  bool          `koanf:"breaker_enabled"`
	BreakerOpenTime time.Duration `koanf:"breaker_open_time"`

	MaxIdleConnsPerHost int `koanf:"max_idle_conns_per_host"`
}

// OrchestrationConfig controls window fan-out and aggregation.
type OrchestrationConfig struct {
	MaxWorkers int  `koanf:"max_workers"`
	Colorize   bool `koanf:"colorize"`
}

// Auth modes.
const (
	AuthModeNone  = "none"
	AuthModeToken = "token"
	AuthModeJWT   = "jwt"
)

// SecurityConfig holds authentication and inbound traffic settings.
type SecurityConfig struct {
	AuthMode string `koanf:"auth_mode"`

	APIToken     string `koanf:"api_token"`
	APITokenHash string `koanf:"api_token_hash"`

	JWT JWTConfig `koanf:"jwt"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// JWTConfig holds settings for bearer JWT validation against a remote key set.
type JWTConfig struct {
	Domain     string   `koanf:"domain"`
	Issuer     string   `koanf:"issuer"`
	Audience   string   `koanf:"audience"`
	Algorithms []string `koanf:"algorithms"`

	// JWKSURL overrides key set discovery when set.
	JWKSURL   string `koanf:"jwks_url"`
	Discovery bool   `koanf:"discovery"`

	JWKSCacheTTL       time.Duration `koanf:"jwks_cache_ttl"`
	MinRefreshInterval time.Duration `koanf:"min_refresh_interval"`
	FetchTimeout       time.Duration `koanf:"fetch_timeout"`
	Leeway             time.Duration `koanf:"leeway"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NormalizedAuthMode maps accepted aliases onto the three auth modes.
// "auth0" and "oauth2" both select JWT validation.
func (s *SecurityConfig) NormalizedAuthMode() string {
	switch strings.ToLower(strings.TrimSpace(s.AuthMode)) {
	case "", AuthModeToken:
		return AuthModeToken
	case AuthModeNone, "disabled":
		return AuthModeNone
	case AuthModeJWT, "auth0", "oauth2", "oidc":
		return AuthModeJWT
	default:
		return strings.ToLower(strings.TrimSpace(s.AuthMode))
	}
}

// IssuerURL returns the expected token issuer. An explicit issuer wins;
// otherwise the issuer is derived from the tenant domain as https://<domain>/.
func (j *JWTConfig) IssuerURL() string {
	if j.Issuer != "" {
		return j.Issuer
	}
	if j.Domain == "" {
		return ""
	}
	domain := strings.TrimSuffix(j.Domain, "/")
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return domain + "/"
}
