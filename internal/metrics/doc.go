// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

/*
Package metrics provides Prometheus metrics for the backup and restore engine.

Metrics are registered on the default registry via promauto and exposed at the
/metrics endpoint by the serve command:

	curl http://localhost:8080/metrics

# Available Metrics

Backup Metrics:
  - aqmon_backup_runs_total: Backup runs (counter)
    Labels: reason (scheduled, manual, api), result (success, failure)
  - aqmon_backup_duration_seconds: Backup run duration (histogram)
  - aqmon_backup_in_progress: 1 while a backup holds the job lock (gauge)
  - aqmon_backup_last_success_timestamp_seconds: Unix time of the last successful backup (gauge)
  - aqmon_backup_retention_deleted_total: Archives removed by retention (counter)
  - aqmon_backup_archive_bytes: Size of the most recent archive (gauge)

Restore Metrics:
  - aqmon_restore_runs_total: Restore runs (counter)
    Labels: result (success, failure, dry_run, aborted)
  - aqmon_restore_documents_total: Restored documents by outcome (counter)
    Labels: outcome (inserted, duplicate, failed)

HTTP Metrics:
  - aqmon_http_requests_total: API requests (counter)
    Labels: method, endpoint, status
  - aqmon_http_request_duration_seconds: API request latency (histogram)
    Labels: method, endpoint

System Metrics:
  - aqmon_app_info: Version information (gauge, always 1)
    Labels: version, go_version
*/
package metrics
