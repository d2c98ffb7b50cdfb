// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/daylight-gateway/config.yaml",
	"/etc/daylight-gateway/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8081,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    15 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    32 << 20,
			Version:         "1.0.0",
		},
		Services: ServicesConfig{
			DeploymentMode: DeploymentLocal,
		},
		Remote: RemoteConfig{
			GeometryTimeout:     30 * time.Second,
			SimulationTimeout:   5 * time.Minute,
			MaxRetries:          3,
			RetryDelay:          300 * time.Millisecond,
			RateLimit:           0,
			RateBurst:           10,
			BreakerEnabled:      true,
			BreakerOpenTime:     30 * time.Second,
			MaxIdleConnsPerHost: 16,
		},
		Orchestration: OrchestrationConfig{
			MaxWorkers: 4,
			Colorize:   false,
		},
		Security: SecurityConfig{
			AuthMode: AuthModeToken,
			JWT: JWTConfig{
				Algorithms:         []string{"RS256"},
				Discovery:          true,
				JWKSCacheTTL:       time.Hour,
				MinRefreshInterval: 30 * time.Second,
				FetchTimeout:       10 * time.Second,
				Leeway:             30 * time.Second,
			},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// sliceConfigPaths are koanf paths that accept comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.jwt.algorithms",
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"port":             "server.port",
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"max_body_bytes":   "server.max_body_bytes",

	// Remote services
	"deployment_mode":         "services.deployment_mode",
	"obstruction_service_url": "services.obstruction_url",
	"encoder_service_url":     "services.encoder_url",
	"model_service_url":       "services.model_url",
	"merger_service_url":      "services.merger_url",
	"stats_service_url":       "services.stats_url",

	// Outbound call policy
	"geometry_timeout":   "remote.geometry_timeout",
	"simulation_timeout": "remote.simulation_timeout",
	"remote_max_retries": "remote.max_retries",
	"remote_retry_delay": "remote.retry_delay",
	"remote_rate_limit":  "remote.rate_limit",
	"remote_rate_burst":  "remote.rate_burst",
	"circuit_breaker":    "remote.breaker_enabled",

	// Orchestration
	"max_workers":     "orchestration.max_workers",
	"colorize_result": "orchestration.colorize",

	// Authentication. AUTH_TYPE is the historical name of AUTH_MODE.
	"auth_mode":           "security.auth_mode",
	"auth_type":           "security.auth_mode",
	"api_token":           "security.api_token",
	"api_token_hash":      "security.api_token_hash",
	"auth0_domain":        "security.jwt.domain",
	"auth0_audience":      "security.jwt.audience",
	"auth0_algorithms":    "security.jwt.algorithms",
	"jwt_issuer":          "security.jwt.issuer",
	"jwt_audience":        "security.jwt.audience",
	"jwks_url":            "security.jwt.jwks_url",
	"jwks_cache_ttl":      "security.jwt.jwks_cache_ttl",
	"jwks_min_refresh":    "security.jwt.min_refresh_interval",
	"jwks_fetch_timeout":  "security.jwt.fetch_timeout",
	"oidc_discovery":      "security.jwt.discovery",
	"jwt_leeway":          "security.jwt.leeway",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
