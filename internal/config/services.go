// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package config

import (
	"fmt"
	"strings"
)

// Remote service names. They double as hostnames in hosted deployments and
// as label values in metrics.
const (
	ServiceObstruction = "obstruction"
	ServiceEncoder     = "encoder"
	ServiceModel       = "model"
	ServiceMerger      = "merger"
	ServiceStats       = "stats"
)

// AllServices lists every remote service in pipeline order.
var AllServices = []string{
	ServiceObstruction,
	ServiceEncoder,
	ServiceModel,
	ServiceMerger,
	ServiceStats,
}

var defaultServicePorts = map[string]int{
	ServiceObstruction: 8004,
	ServiceEncoder:     8082,
	ServiceModel:       8083,
	ServiceMerger:      8084,
	ServiceStats:       8003,
}

// IsHosted reports whether remote services are addressed by container hostname.
func (s *ServicesConfig) IsHosted() bool {
	switch strings.ToLower(s.DeploymentMode) {
	case DeploymentHosted, "production", "docker":
		return true
	default:
		return false
	}
}

// BaseURL returns the base URL for a remote service. An explicit URL wins;
// otherwise local deployments use localhost and hosted deployments use the
// service name as hostname, both on the service's default port.
func (s *ServicesConfig) BaseURL(service string) string {
	if u := s.explicitURL(service); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	port, ok := defaultServicePorts[service]
	if !ok {
		return ""
	}
	host := "localhost"
	if s.IsHosted() {
		host = service
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

func (s *ServicesConfig) explicitURL(service string) string {
	switch service {
	case ServiceObstruction:
		return s.ObstructionURL
	case ServiceEncoder:
		return s.EncoderURL
	case ServiceModel:
		return s.ModelURL
	case ServiceMerger:
		return s.MergerURL
	case ServiceStats:
		return s.StatsURL
	default:
		return ""
	}
}
