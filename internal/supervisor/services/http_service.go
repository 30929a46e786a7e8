// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/aqmon/internal/logging"
)

// DefaultShutdownTimeout bounds the drain of in-flight API requests
const DefaultShutdownTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service uses.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the status API as a supervised service.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server; shutdownTimeout <= 0 means DefaultShutdownTimeout.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve blocks until ctx is canceled or the listener stops. Listener errors
// such as a port in use are returned, and suture restarts the service with backoff.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenDone := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenDone <- err
	}()

	select {
	case err := <-listenDone:
		if err != nil {
			logging.Error().Err(err).Str("component", h.String()).Msg("Status API listener failed")
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	<-listenDone
	logging.Info().Str("component", h.String()).Msg("Status API stopped")
	return ctx.Err()
}

func (h *HTTPServerService) String() string {
	return "status-api"
}
