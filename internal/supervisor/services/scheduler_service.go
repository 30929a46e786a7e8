// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/aqmon/internal/logging"
)

// StartStopper matches the backup scheduler lifecycle; *backup.Scheduler
// satisfies it.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService runs the backup scheduler as a supervised service.
type SchedulerService struct {
	scheduler StartStopper
	name      string
}

// NewSchedulerService wraps scheduler.
func NewSchedulerService(scheduler StartStopper) *SchedulerService {
	return &SchedulerService{scheduler: scheduler, name: "backup-scheduler"}
}

// Serve starts the scheduler, waits for ctx to be canceled, then stops it.
// Stop waits for an in-flight backup up to the scheduler's own timeout; a
// timeout is logged rather than returned so suture does not count it as a
// failure during shutdown.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		logging.Warn().Err(err).Str("component", s.name).Msg("Backup still running at shutdown")
	}
	return ctx.Err()
}

// String identifies the service in suture events.
func (s *SchedulerService) String() string {
	return s.name
}
