// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package models

import "time"

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse wraps every API response
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code and a message.
//
// Codes used by the API:
//   - VALIDATION_ERROR: the request body failed validation
//   - INVALID_JSON: the request body is not JSON
//   - BACKUP_IN_PROGRESS: a backup is already running
//   - SCHEDULER_UNAVAILABLE: the process has no backup scheduler
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeBackupInProgress     = "BACKUP_IN_PROGRESS"
	ErrCodeSchedulerUnavailable = "SCHEDULER_UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
)
