// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package backup runs periodic database backups and applies archive retention.
//
// # Overview
//
// The Scheduler owns one background loop that waits on an interruptible timer,
// runs a backup, applies retention and re-arms the timer:
//
//	Start ──► wait(0) ──► TriggerBackup("scheduled") ──► wait(Interval) ──► ...
//	Stop  ──► signal ──► join (bounded by StopTimeout)
//
// The first wait is zero, so the first backup runs promptly after Start.
//
// # Mutual Exclusion
//
// TriggerBackup takes a non-blocking job lock. When a backup is already
// running it returns false immediately; requests are never queued:
//
//	accepted := scheduler.TriggerBackup(backup.ReasonManual, true)
//	if !accepted {
//		// a backup is already in progress
//	}
//
// # Failure Handling
//
// A backup run never returns an error or panics out of the scheduler.
// Connection failures, archive failures and recovered panics are logged and
// folded into Status().LastResult; the loop retries on the next interval.
//
// # Retention
//
// After a successful backup, archives named backup_<YYYYmmdd_HHMMSS>.tar whose
// modification time is older than now minus RetentionDays are deleted.
// RetentionDays <= 0 disables cleanup.
package backup
