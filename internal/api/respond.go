// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/models"
)

// maxBodyBytes bounds request bodies; the trigger body is tiny
const maxBodyBytes = 4 << 10

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   models.StatusSuccess,
		Data:     data,
		Metadata: metadataFor(r),
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	if status >= http.StatusInternalServerError {
		logging.CtxWarn(r.Context()).Str("code", code).Str("path", sanitizeLogValue(r.URL.Path)).Msg(message)
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   models.StatusError,
		Metadata: metadataFor(r),
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func metadataFor(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// decodeJSON decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// sanitizeLogValue strips line breaks so request data cannot forge log lines
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
