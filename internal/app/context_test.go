// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/docdb/docdbtest"
)

func TestSchedulerNotRegistered(t *testing.T) {
	t.Parallel()
	appCtx := New(config.Default())

	sched, err := appCtx.Scheduler()
	if !errors.Is(err, ErrNoScheduler) {
		t.Errorf("Scheduler() error = %v, want ErrNoScheduler", err)
	}
	if sched != nil {
		t.Error("Scheduler() should return nil when none is registered")
	}
}

func TestSetScheduler(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	appCtx := New(cfg)
	if appCtx.Config() != cfg {
		t.Error("Config() should return the construction config")
	}

	db := docdbtest.New("aqmon")
	connector := backup.ConnectorFunc(func(context.Context) (docdb.Database, error) { return db, nil })
	sched, err := backup.NewScheduler(backup.Config{Dir: t.TempDir()}, connector, archive.NewWriter(0))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	appCtx.SetScheduler(sched)

	got, err := appCtx.Scheduler()
	if err != nil {
		t.Fatalf("Scheduler: %v", err)
	}
	if got != sched {
		t.Error("Scheduler() returned a different instance")
	}
}
