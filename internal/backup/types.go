// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package backup

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
)

// Trigger reasons
const (
	ReasonScheduled = "scheduled"
	ReasonManual    = "manual"
	ReasonAPI       = "api"
)

// ErrStopTimeout is returned by Stop when the loop does not exit within StopTimeout
var ErrStopTimeout = errors.New("backup scheduler did not stop within timeout")

// ErrAlreadyRunning is returned by Start on a running scheduler
var ErrAlreadyRunning = errors.New("backup scheduler is already running")

// Connector opens a database handle for one backup run
type Connector interface {
	Connect(ctx context.Context) (docdb.Database, error)
}

// ConnectorFunc adapts a function to Connector
type ConnectorFunc func(ctx context.Context) (docdb.Database, error)

// Connect calls f
func (f ConnectorFunc) Connect(ctx context.Context) (docdb.Database, error) {
	return f(ctx)
}

// Archiver writes an archive of a database; implemented by archive.Writer
type Archiver interface {
	Backup(ctx context.Context, db docdb.Database, outRoot string, pretty bool) (*archive.Result, error)
}

// Result is the outcome of the most recent backup run
type Result struct {
	Reason  string `json:"reason"`
	Success bool   `json:"success"`

	ArchivePath string `json:"archive_path,omitempty"`
	ArchiveSize int64  `json:"archive_size,omitempty"`
	Documents   int64  `json:"documents,omitempty"`

	// Collections whose dump failed; the archive holds their partial files
	FailedCollections []string `json:"failed_collections,omitempty"`

	// Archives removed by retention after this run
	Deleted []string `json:"deleted,omitempty"`

	Error          string `json:"error,omitempty"`
	RetentionError string `json:"retention_error,omitempty"`
}

// Status is a point-in-time view of the scheduler
type Status struct {
	IsRunning         bool       `json:"is_running"`
	BackupInProgress  bool       `json:"backup_in_progress"`
	Interval          string     `json:"interval"`
	RetentionDays     int        `json:"retention_days"`
	LastRunStartedAt  *time.Time `json:"last_run_started_at,omitempty"`
	LastRunFinishedAt *time.Time `json:"last_run_finished_at,omitempty"`
	LastResult        *Result    `json:"last_result,omitempty"`
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.FailedCollections = append([]string(nil), r.FailedCollections...)
	c.Deleted = append([]string(nil), r.Deleted...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
