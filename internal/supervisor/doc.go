// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package supervisor runs the long-lived parts of aqmon-db under a suture/v4
// supervisor tree.
//
// The tree has two layers below the root:
//
//	aqmon-db
//	├── data-layer   backup scheduler
//	└── api-layer    status and trigger HTTP server
//
// A service that returns an error or panics is restarted with backoff. The
// layers are separate supervisors so a crashing HTTP listener does not
// restart the scheduler and interrupt an archive being written.
//
// Supervisor events are logged through sutureslog with the zerolog-backed
// slog logger from internal/logging.
//
// Service adapters live in the services subpackage.
package supervisor
