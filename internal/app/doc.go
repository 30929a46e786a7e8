// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

/*
Package app holds the process-wide application context.

A Context owns the single backup scheduler of the process. Callers that need
the scheduler (HTTP handlers, the serve command) receive the Context
explicitly instead of reaching for a global. Asking for the scheduler before
one is registered returns ErrNoScheduler.

Usage:

	appCtx := app.New(cfg)
	appCtx.SetScheduler(sched)

	sched, err := appCtx.Scheduler()
	if errors.Is(err, app.ErrNoScheduler) {
	    // backups are not configured in this process
	}
*/
package app
