// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/aqmon/internal/app"
	"github.com/tomtom215/aqmon/internal/middleware"
	"github.com/tomtom215/aqmon/internal/models"
)

// RouterConfig configures NewRouter
type RouterConfig struct {
	Version   string
	RateLimit RateLimitConfig
}

// NewRouter builds the chi router for appCtx
func NewRouter(appCtx *app.Context, cfg RouterConfig) http.Handler {
	h := NewHandler(appCtx, cfg.Version)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "No such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit))
		r.Use(securityHeaders)

		r.Get("/backup/status", h.BackupStatus)
		r.Post("/backup/trigger", h.BackupTrigger)
	})

	return r
}

// NewServer wraps handler in an http.Server with conservative timeouts.
// WriteTimeout is left unset so a synchronous trigger can wait for a long backup.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
