// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/daylight-gateway/internal/auth"
	"github.com/tomtom215/daylight-gateway/internal/middleware"
)

// Router wires handlers, auth and middleware into a chi mux.
type Router struct {
	handler       *Handler
	validator     auth.Validator
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. The validator decides how /v1 requests are
// authenticated.
func NewRouter(handler *Handler, validator auth.Validator, mw *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		validator:     validator,
		chiMiddleware: NewChiMiddleware(mw),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)        // X-Request-ID and correlation ID
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	// ========================
	// Public Endpoints
	// ========================
	r.Get("/", router.handler.Status)
	r.Get("/health", router.handler.Health)

	// ========================
	// Simulation API
	// ========================
	r.Route("/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.Middleware(router.validator, respondAuthError))

		r.Post("/run", router.handler.Run)
		r.Post("/encode", router.handler.Encode)

		// Single-hop stage access
		r.Post("/encode_raw", router.handler.EncodeRaw)
		r.Post("/obstruction", router.handler.Obstruction)
		r.Post("/calculate-direction", router.handler.CalculateDirection)
		r.Post("/get-reference-point", router.handler.ReferencePoint)
		r.Post("/merge", router.handler.Merge)
		r.Post("/stats", router.handler.Stats)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
