// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxRemoteRetries bounds remote.max_retries.
const MaxRemoteRetries = 5

var supportedJWTAlgorithms = map[string]bool{
	"RS256": true,
	"RS384": true,
	"RS512": true,
}

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateOrchestration(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	switch strings.ToLower(c.Services.DeploymentMode) {
	case DeploymentLocal, DeploymentHosted, "production", "docker":
	default:
		return fmt.Errorf("DEPLOYMENT_MODE must be one of local, hosted, got: %s", c.Services.DeploymentMode)
	}

	for _, svc := range AllServices {
		raw := c.Services.explicitURL(svc)
		if raw == "" {
			continue
		}
		field := strings.ToUpper(svc) + "_SERVICE_URL"
		if err := validateHTTPURL(raw, field); err != nil {
			return fmt.Errorf("%s is invalid: %w", field, err)
		}
	}
	return nil
}

func (c *Config) validateRemote() error {
	r := c.Remote
	if r.GeometryTimeout <= 0 {
		return fmt.Errorf("GEOMETRY_TIMEOUT must be positive")
	}
	if r.SimulationTimeout < r.GeometryTimeout {
		return fmt.Errorf("SIMULATION_TIMEOUT (%s) must not be shorter than GEOMETRY_TIMEOUT (%s)",
			r.SimulationTimeout, r.GeometryTimeout)
	}
	if r.MaxRetries < 0 || r.MaxRetries > MaxRemoteRetries {
		return fmt.Errorf("REMOTE_MAX_RETRIES must be between 0 and %d, got %d", MaxRemoteRetries, r.MaxRetries)
	}
	if r.MaxRetries > 0 && r.RetryDelay <= 0 {
		return fmt.Errorf("REMOTE_RETRY_DELAY must be positive when retries are enabled")
	}
	if r.RateLimit < 0 {
		return fmt.Errorf("REMOTE_RATE_LIMIT must not be negative")
	}
	if r.RateLimit > 0 && r.RateBurst < 1 {
		return fmt.Errorf("REMOTE_RATE_BURST must be at least 1 when REMOTE_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) validateOrchestration() error {
	if c.Orchestration.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.Orchestration.MaxWorkers)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := &c.Security
	switch s.NormalizedAuthMode() {
	case AuthModeNone:
	case AuthModeToken:
		if s.APIToken == "" && s.APITokenHash == "" {
			return fmt.Errorf("API_TOKEN or API_TOKEN_HASH is required when AUTH_MODE=token")
		}
		if s.APITokenHash != "" && !strings.HasPrefix(s.APITokenHash, "$2") {
			return fmt.Errorf("API_TOKEN_HASH must be a bcrypt hash")
		}
	case AuthModeJWT:
		if err := c.validateJWT(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of none, token, jwt, got: %s", s.AuthMode)
	}

	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateJWT() error {
	j := &c.Security.JWT
	if j.IssuerURL() == "" {
		return fmt.Errorf("AUTH0_DOMAIN or JWT_ISSUER is required when AUTH_MODE=jwt")
	}
	if _, err := url.Parse(j.IssuerURL()); err != nil {
		return fmt.Errorf("JWT issuer is invalid: %w", err)
	}
	if j.Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH_MODE=jwt")
	}
	if len(j.Algorithms) == 0 {
		return fmt.Errorf("AUTH0_ALGORITHMS must list at least one algorithm")
	}
	for _, alg := range j.Algorithms {
		if !supportedJWTAlgorithms[alg] {
			return fmt.Errorf("AUTH0_ALGORITHMS contains unsupported algorithm %q (supported: RS256, RS384, RS512)", alg)
		}
	}
	if j.JWKSURL != "" {
		u, err := url.Parse(j.JWKSURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("JWKS_URL must be an absolute http(s) URL")
		}
	}
	if j.JWKSCacheTTL <= 0 {
		return fmt.Errorf("JWKS_CACHE_TTL must be positive")
	}
	if j.FetchTimeout <= 0 {
		return fmt.Errorf("JWKS_FETCH_TIMEOUT must be positive")
	}
	if j.MinRefreshInterval < 0 {
		return fmt.Errorf("JWKS_MIN_REFRESH must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that rawURL is an http(s) base URL without a path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsed.Path)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}
