// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/metrics"
)

// Scheduler runs backups on a timer and on demand, one at a time
type Scheduler struct {
	cfg       Config
	connector Connector
	archiver  Archiver
	now       func() time.Time

	// Job lock; held for the whole duration of one backup run
	jobMu      sync.Mutex
	inProgress atomic.Bool

	statusMu sync.RWMutex
	status   Status

	// Loop lifecycle
	runningMu sync.Mutex
	running   bool
	stopping  bool
	baseCtx   context.Context
	stop      chan struct{}
	done      chan struct{}

	// Asynchronous trigger runs; Add only under runningMu while not stopping
	asyncWg sync.WaitGroup
}

// NewScheduler creates a scheduler. Configuration is read once here.
func NewScheduler(cfg Config, connector Connector, archiver Archiver) (*Scheduler, error) {
	if connector == nil {
		return nil, fmt.Errorf("backup connector is required")
	}
	if archiver == nil {
		return nil, fmt.Errorf("backup archiver is required")
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultConfig().StopTimeout
	}

	return &Scheduler{
		cfg:       cfg,
		connector: connector,
		archiver:  archiver,
		now:       time.Now,
		baseCtx:   context.Background(),
		status: Status{
			Interval:      cfg.Interval.String(),
			RetentionDays: cfg.RetentionDays,
		},
	}, nil
}

// Start launches the background loop. The first backup runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if !s.cfg.Enabled {
		logging.Info().Msg("Scheduled backups disabled")
		return nil
	}
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got: %s", s.cfg.Interval)
	}

	// Runs outlive the caller's cancellation so Stop never cuts a backup short
	s.baseCtx = context.WithoutCancel(ctx)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	s.stopping = false
	s.setRunning(true)

	go s.run(ctx, s.stop, s.done)

	logging.Info().
		Str("interval", s.cfg.Interval.String()).
		Int("retention_days", s.cfg.RetentionDays).
		Str("dir", s.cfg.Dir).
		Msg("Backup scheduler started")
	return nil
}

// Stop signals the loop and waits for it and any in-flight runs, up to StopTimeout.
// An in-flight backup is never interrupted; ErrStopTimeout is returned if it outlasts the timeout.
func (s *Scheduler) Stop() error {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return nil
	}
	close(s.stop)
	done := s.done
	s.running = false
	s.stopping = true
	s.runningMu.Unlock()

	finished := make(chan struct{})
	go func() {
		<-done
		s.asyncWg.Wait()
		close(finished)
	}()

	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-finished:
		logging.Info().Msg("Backup scheduler stopped")
		return nil
	case <-timer.C:
		logging.Warn().Dur("timeout", s.cfg.StopTimeout).Msg("Backup scheduler did not stop in time")
		return ErrStopTimeout
	}
}

// run is the scheduler loop
func (s *Scheduler) run(ctx context.Context, stop chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer s.loopExited(stop)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-timer.C:
			if !s.TriggerBackup(ReasonScheduled, false) {
				logging.Info().Msg("Scheduled backup skipped, another backup is in progress")
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

// loopExited clears the running state unless a newer loop has replaced this one
func (s *Scheduler) loopExited(stop chan struct{}) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.stop != stop {
		return
	}
	s.running = false
	s.setRunning(false)
}

// TriggerBackup runs a backup unless one is already in progress, in which case it
// returns false without waiting. With async the run happens on a new goroutine;
// async triggers are also refused once Stop has been called.
func (s *Scheduler) TriggerBackup(reason string, async bool) bool {
	if !s.jobMu.TryLock() {
		return false
	}
	s.inProgress.Store(true)

	s.runningMu.Lock()
	ctx := s.baseCtx
	if async && s.stopping {
		s.runningMu.Unlock()
		s.release()
		return false
	}
	if async {
		s.asyncWg.Add(1)
	}
	s.runningMu.Unlock()

	if async {
		go func() {
			defer s.asyncWg.Done()
			defer s.release()
			s.runBackup(ctx, reason)
		}()
		return true
	}

	defer s.release()
	s.runBackup(ctx, reason)
	return true
}

// RunNow runs one backup on the calling goroutine with ctx, which unlike
// TriggerBackup lets the caller cancel the run. It returns false without
// running when a backup is already in progress.
func (s *Scheduler) RunNow(ctx context.Context, reason string) (*Result, bool) {
	if !s.jobMu.TryLock() {
		return nil, false
	}
	s.inProgress.Store(true)
	defer s.release()

	s.runBackup(ctx, reason)
	return s.Status().LastResult, true
}

func (s *Scheduler) release() {
	s.inProgress.Store(false)
	s.jobMu.Unlock()
}

// Stopping reports whether Stop has been called since the last Start
func (s *Scheduler) Stopping() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.stopping
}

// Status returns a copy of the scheduler status
func (s *Scheduler) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	st := s.status
	st.LastRunStartedAt = cloneTime(s.status.LastRunStartedAt)
	st.LastRunFinishedAt = cloneTime(s.status.LastRunFinishedAt)
	st.LastResult = s.status.LastResult.clone()
	st.BackupInProgress = s.inProgress.Load()
	return st
}

// Wait blocks until asynchronous runs started by TriggerBackup have finished
func (s *Scheduler) Wait() {
	s.asyncWg.Wait()
}

func (s *Scheduler) setRunning(running bool) {
	s.statusMu.Lock()
	s.status.IsRunning = running
	s.statusMu.Unlock()
}

// runBackup executes one backup and records its outcome; it never panics or returns an error
func (s *Scheduler) runBackup(ctx context.Context, reason string) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	metrics.TrackBackupInProgress(true)
	defer metrics.TrackBackupInProgress(false)

	started := s.now()
	s.statusMu.Lock()
	s.status.LastRunStartedAt = &started
	s.statusMu.Unlock()

	logging.CtxInfo(ctx).Str("reason", reason).Msg("Backup started")

	res := s.execute(ctx, reason)

	finished := s.now()
	s.statusMu.Lock()
	s.status.LastRunFinishedAt = &finished
	s.status.LastResult = res
	s.statusMu.Unlock()

	var runErr error
	if !res.Success {
		runErr = errors.New(res.Error)
		logging.CtxError(ctx).Str("reason", reason).Str("error", res.Error).Msg("Backup failed")
	} else {
		logging.CtxInfo(ctx).
			Str("reason", reason).
			Str("archive", res.ArchivePath).
			Int("deleted", len(res.Deleted)).
			Dur("duration", finished.Sub(started)).
			Msg("Backup completed")
	}
	metrics.RecordBackupRun(reason, finished.Sub(started), res.ArchiveSize, runErr)
}

// execute connects, writes the archive and applies retention
func (s *Scheduler) execute(ctx context.Context, reason string) (res *Result) {
	res = &Result{Reason: reason}
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("backup panicked: %v", r)
		}
	}()

	db, err := s.connector.Connect(ctx)
	if err != nil {
		res.Error = fmt.Sprintf("failed to connect: %v", err)
		return res
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			logging.CtxWarn(ctx).Err(err).Msg("Failed to close database connection")
		}
	}()

	out, err := s.archiver.Backup(ctx, db, s.cfg.Dir, s.cfg.Pretty)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.ArchivePath = out.ArchivePath
	res.ArchiveSize = out.Size
	res.Documents = out.Documents()
	for name := range out.Failed {
		res.FailedCollections = append(res.FailedCollections, name)
	}
	sort.Strings(res.FailedCollections)

	deleted, err := ApplyRetention(archive.DataDir(s.cfg.Dir), s.cfg.RetentionDays, s.now())
	res.Deleted = deleted
	if err != nil {
		res.RetentionError = err.Error()
		logging.CtxWarn(ctx).Err(err).Msg("Retention cleanup incomplete")
	}
	metrics.RecordRetentionDeleted(len(deleted))
	return res
}
