// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// setBaseEnv isolates Load from whatever the test runner exports.
func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "HTTP_PORT", "DEPLOYMENT_MODE", "AUTH_MODE", "AUTH_TYPE", "API_TOKEN",
		"API_TOKEN_HASH", "AUTH0_DOMAIN", "AUTH0_AUDIENCE", "AUTH0_ALGORITHMS", "JWT_ISSUER",
		"JWKS_URL", "MAX_WORKERS", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS",
		"OBSTRUCTION_SERVICE_URL", "ENCODER_SERVICE_URL", "MODEL_SERVICE_URL",
		"MERGER_SERVICE_URL", "STATS_SERVICE_URL", "REMOTE_MAX_RETRIES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Remote.GeometryTimeout != 30*time.Second {
		t.Errorf("Remote.GeometryTimeout = %v, want 30s", cfg.Remote.GeometryTimeout)
	}
	if cfg.Remote.SimulationTimeout != 5*time.Minute {
		t.Errorf("Remote.SimulationTimeout = %v, want 5m", cfg.Remote.SimulationTimeout)
	}
	if cfg.Remote.MaxRetries != 3 {
		t.Errorf("Remote.MaxRetries = %d, want 3", cfg.Remote.MaxRetries)
	}
	if cfg.Remote.RetryDelay != 300*time.Millisecond {
		t.Errorf("Remote.RetryDelay = %v, want 300ms", cfg.Remote.RetryDelay)
	}
	if cfg.Security.AuthMode != AuthModeToken {
		t.Errorf("Security.AuthMode = %q, want token", cfg.Security.AuthMode)
	}
	if !reflect.DeepEqual(cfg.Security.JWT.Algorithms, []string{"RS256"}) {
		t.Errorf("JWT.Algorithms = %v, want [RS256]", cfg.Security.JWT.Algorithms)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("MAX_WORKERS", "2")
	t.Setenv("GEOMETRY_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MODEL_SERVICE_URL", "http://gpu-box:9000/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Security.APIToken != "secret" {
		t.Errorf("Security.APIToken not loaded")
	}
	if cfg.Orchestration.MaxWorkers != 2 {
		t.Errorf("Orchestration.MaxWorkers = %d, want 2", cfg.Orchestration.MaxWorkers)
	}
	if cfg.Remote.GeometryTimeout != 5*time.Second {
		t.Errorf("Remote.GeometryTimeout = %v, want 5s", cfg.Remote.GeometryTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if got := cfg.Services.BaseURL(ServiceModel); got != "http://gpu-box:9000" {
		t.Errorf("BaseURL(model) = %q", got)
	}
}

func TestLoad_AuthTypeAlias(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTH_TYPE", "auth0")
	t.Setenv("AUTH0_DOMAIN", "tenant.example.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")
	t.Setenv("AUTH0_ALGORITHMS", "RS256,RS512")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Security.NormalizedAuthMode(); got != AuthModeJWT {
		t.Errorf("NormalizedAuthMode() = %q, want jwt", got)
	}
	if got := cfg.Security.JWT.IssuerURL(); got != "https://tenant.example.com/" {
		t.Errorf("IssuerURL() = %q", got)
	}
	if !reflect.DeepEqual(cfg.Security.JWT.Algorithms, []string{"RS256", "RS512"}) {
		t.Errorf("Algorithms = %v", cfg.Security.JWT.Algorithms)
	}
}

func TestLoad_TokenModeRequiresSecret(t *testing.T) {
	setBaseEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when token mode has no secret")
	}
	if !strings.Contains(err.Error(), "API_TOKEN") {
		t.Errorf("error = %v, want mention of API_TOKEN", err)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
services:
  deployment_mode: hosted
security:
  auth_mode: none
orchestration:
  max_workers: 6
  colorize: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env override 7100", cfg.Server.Port)
	}
	if cfg.Orchestration.MaxWorkers != 6 || !cfg.Orchestration.Colorize {
		t.Errorf("Orchestration = %+v", cfg.Orchestration)
	}
	if got := cfg.Services.BaseURL(ServiceEncoder); got != "http://encoder:8082" {
		t.Errorf("BaseURL(encoder) = %q, want hosted default", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"AUTH_TYPE":               "security.auth_mode",
		"OBSTRUCTION_SERVICE_URL": "services.obstruction_url",
		"LOG_LEVEL":               "logging.level",
		"HOME":                    "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
