// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package middleware holds the net/http middleware used by the status API:
// request IDs wired into the logging context, and Prometheus request metrics.
package middleware
