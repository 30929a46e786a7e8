// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package logging provides the zerolog-based structured logger shared by the
// backup scheduler, the restore engine and the HTTP surface.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("archive", path).Msg("Backup complete")
//	logging.CtxWarn(ctx).Str("collection", name).Msg("Skipping bucket file")
//
// # Configuration
//
// Init is normally called from the command entry point with the values of
// the logging section of the configuration (LOG_LEVEL, LOG_FORMAT and
// LOG_CALLER). Before Init runs, output is JSON at info level on stderr.
//
// # Correlation
//
// Each backup run and each restore run gets its own correlation ID:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.CtxInfo(ctx).Msg("Restore started")
//	// {"level":"info","correlation_id":"1f3a9c2e","message":"Restore started"}
//
// HTTP handlers additionally carry the request ID set by the router
// middleware.
//
// # Suture
//
// The supervisor tree logs through sutureslog, which wants a *slog.Logger.
// NewSlogLogger returns one that writes through zerolog.
//
// Always terminate log chains with Msg or Send, otherwise nothing is written.
package logging
