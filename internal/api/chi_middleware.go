// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tomtom215/aqmon/internal/models"
)

// RateLimitConfig configures the /api/v1 rate limiter
type RateLimitConfig struct {
	// Requests per window per client IP; <= 0 disables limiting
	Requests int
	Window   time.Duration
}

// rateLimit returns an IP-keyed httprate limiter answering 429 in the API envelope
func rateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		cfg.Requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, models.ErrCodeRateLimited, "Rate limit exceeded, retry later", nil)
		}),
	)
}

// securityHeaders sets the headers every API response carries
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
