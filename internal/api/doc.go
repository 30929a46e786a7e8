// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package api serves the backup status and trigger endpoints of aqmon-db.
//
// Routes:
//
//	GET  /health                  liveness and scheduler presence
//	GET  /metrics                 Prometheus metrics
//	GET  /api/v1/backup/status    scheduler status (see backup.Status)
//	POST /api/v1/backup/trigger   start a backup; 202 when started
//	                              asynchronously, 200 with the result when
//	                              synchronous, 409 when one is running,
//	                              503 without a scheduler
//
// The /api/v1 group is rate limited per client IP with go-chi/httprate.
// Responses use the models.APIResponse envelope encoded with goccy/go-json.
// There is no authentication; the listener binds to loopback by default.
package api
