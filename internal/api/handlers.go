// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/aqmon/internal/app"
	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/models"
	"github.com/tomtom215/aqmon/internal/validation"
)

// Handler serves the API routes from the application context
type Handler struct {
	app       *app.Context
	version   string
	startTime time.Time
}

// NewHandler creates a handler
func NewHandler(appCtx *app.Context, version string) *Handler {
	return &Handler{app: appCtx, version: version, startTime: time.Now()}
}

// Health reports liveness. It answers 200 even without a scheduler, since a
// serve process with backups disabled is still healthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}
	if sched, err := h.app.Scheduler(); err == nil {
		resp.Scheduler = true
		resp.BackupInProgress = sched.Status().BackupInProgress
	}
	respondData(w, r, http.StatusOK, resp)
}

// BackupStatus returns the scheduler status
func (h *Handler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	sched, ok := h.scheduler(w, r)
	if !ok {
		return
	}
	respondData(w, r, http.StatusOK, sched.Status())
}

// BackupTrigger starts a backup. It never waits for a running one.
func (h *Handler) BackupTrigger(w http.ResponseWriter, r *http.Request) {
	var req models.TriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeInvalidJSON, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	sched, ok := h.scheduler(w, r)
	if !ok {
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = backup.ReasonAPI
	}
	async := req.IsAsync()

	if !sched.TriggerBackup(reason, async) {
		if sched.Stopping() {
			respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeSchedulerUnavailable, "Backup scheduler is shutting down", nil)
			return
		}
		respondError(w, r, http.StatusConflict, models.ErrCodeBackupInProgress, "A backup is already in progress", nil)
		return
	}
	logging.CtxInfo(r.Context()).Str("reason", reason).Bool("async", async).Msg("Backup triggered through the API")

	resp := models.TriggerResponse{Started: true, Reason: reason, Async: async}
	if async {
		respondData(w, r, http.StatusAccepted, resp)
		return
	}
	resp.Result = sched.Status().LastResult
	respondData(w, r, http.StatusOK, resp)
}

func (h *Handler) scheduler(w http.ResponseWriter, r *http.Request) (*backup.Scheduler, bool) {
	sched, err := h.app.Scheduler()
	if err != nil {
		if errors.Is(err, app.ErrNoScheduler) {
			respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeSchedulerUnavailable, "Backup scheduler is not running in this process", nil)
		} else {
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeSchedulerUnavailable, err.Error(), nil)
		}
		return nil, false
	}
	return sched, true
}
