// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package models

// TriggerRequest is the body of POST /api/v1/backup/trigger. An empty body
// means an asynchronous run with reason "api".
type TriggerRequest struct {
	// Recorded in the run result and the backup metrics
	Reason string `json:"reason" validate:"omitempty,min=1,max=64,printascii"`

	// Return immediately (true, the default) or wait for the run to finish
	Async *bool `json:"async,omitempty"`
}

// IsAsync reports whether the caller asked not to wait
func (r *TriggerRequest) IsAsync() bool {
	return r.Async == nil || *r.Async
}

// TriggerResponse reports whether a run was started. For a synchronous
// trigger Result holds the outcome of the run.
type TriggerResponse struct {
	Started bool        `json:"started"`
	Reason  string      `json:"reason"`
	Async   bool        `json:"async"`
	Result  interface{} `json:"result,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	Scheduler        bool   `json:"scheduler"`
	BackupInProgress bool   `json:"backup_in_progress"`
}
