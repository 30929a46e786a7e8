// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDryRun  = "dry_run"
	ResultAborted = "aborted"

	OutcomeInserted  = "inserted"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

var (
	// Backup Metrics
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqmon_backup_runs_total",
			Help: "Total number of backup runs",
		},
		[]string{"reason", "result"},
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aqmon_backup_duration_seconds",
			Help:    "Duration of backup runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	BackupInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqmon_backup_in_progress",
			Help: "Whether a backup is currently running (1) or not (0)",
		},
	)

	BackupLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqmon_backup_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful backup",
		},
	)

	BackupRetentionDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aqmon_backup_retention_deleted_total",
			Help: "Total number of archives deleted by the retention policy",
		},
	)

	BackupArchiveBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aqmon_backup_archive_bytes",
			Help: "Size in bytes of the most recent backup archive",
		},
	)

	// Restore Metrics
	RestoreRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqmon_restore_runs_total",
			Help: "Total number of restore runs",
		},
		[]string{"result"},
	)

	RestoreDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqmon_restore_documents_total",
			Help: "Total number of documents processed by restores",
		},
		[]string{"outcome"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aqmon_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aqmon_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aqmon_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordBackupRun records the outcome of one backup run
func RecordBackupRun(reason string, duration time.Duration, archiveBytes int64, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		BackupRunsTotal.WithLabelValues(reason, ResultFailure).Inc()
		return
	}
	BackupRunsTotal.WithLabelValues(reason, ResultSuccess).Inc()
	BackupLastSuccess.Set(float64(time.Now().Unix()))
	BackupArchiveBytes.Set(float64(archiveBytes))
}

// TrackBackupInProgress flips the in-progress gauge
func TrackBackupInProgress(running bool) {
	if running {
		BackupInProgress.Set(1)
	} else {
		BackupInProgress.Set(0)
	}
}

// RecordRetentionDeleted counts archives removed by retention
func RecordRetentionDeleted(n int) {
	if n > 0 {
		BackupRetentionDeleted.Add(float64(n))
	}
}

// RecordRestoreRun records the result of one restore run
func RecordRestoreRun(result string) {
	RestoreRunsTotal.WithLabelValues(result).Inc()
}

// RecordRestoreDocuments records restored document counts
func RecordRestoreDocuments(inserted, duplicates, failed int) {
	RestoreDocumentsTotal.WithLabelValues(OutcomeInserted).Add(float64(inserted))
	RestoreDocumentsTotal.WithLabelValues(OutcomeDuplicate).Add(float64(duplicates))
	RestoreDocumentsTotal.WithLabelValues(OutcomeFailed).Add(float64(failed))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetAppInfo publishes version information
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
