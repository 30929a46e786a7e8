// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/aqmon/internal/app"
	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/docdb/docdbtest"
	"github.com/tomtom215/aqmon/internal/models"
)

// gatedArchiver blocks each run until release is closed (when set)
type gatedArchiver struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (a *gatedArchiver) Backup(ctx context.Context, _ docdb.Database, outRoot string, _ bool) (*archive.Result, error) {
	a.calls.Add(1)
	select {
	case a.entered <- struct{}{}:
	default:
	}
	if a.release != nil {
		<-a.release
	}
	return &archive.Result{ArchivePath: outRoot + "/backup_data/backup_20260301_060000.tar", Size: 2048}, nil
}

// envelope decodes the response with Data left raw
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newTestRouter(t *testing.T, archiver *gatedArchiver, rate RateLimitConfig) (http.Handler, *backup.Scheduler) {
	t.Helper()
	appCtx := app.New(config.Default())

	var sched *backup.Scheduler
	if archiver != nil {
		db := docdbtest.New("aqmon")
		connector := backup.ConnectorFunc(func(context.Context) (docdb.Database, error) { return db, nil })
		var err error
		sched, err = backup.NewScheduler(backup.Config{Dir: t.TempDir(), Interval: time.Hour}, connector, archiver)
		if err != nil {
			t.Fatalf("NewScheduler: %v", err)
		}
		appCtx.SetScheduler(sched)
		t.Cleanup(sched.Wait)
	}
	return NewRouter(appCtx, RouterConfig{Version: "test", RateLimit: rate}), sched
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func newArchiver(gated bool) *gatedArchiver {
	a := &gatedArchiver{entered: make(chan struct{}, 4)}
	if gated {
		a.release = make(chan struct{})
	}
	return a
}

func TestHealth(t *testing.T) {
	t.Parallel()

	for _, withScheduler := range []bool{false, true} {
		var archiver *gatedArchiver
		if withScheduler {
			archiver = newArchiver(false)
		}
		h, _ := newTestRouter(t, archiver, RateLimitConfig{})

		rec, env := do(t, h, http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK || env.Status != models.StatusSuccess {
			t.Fatalf("GET /health = %d %+v", rec.Code, env)
		}
		var health models.HealthResponse
		if err := json.Unmarshal(env.Data, &health); err != nil {
			t.Fatal(err)
		}
		if health.Scheduler != withScheduler || health.Version != "test" {
			t.Errorf("health = %+v, want scheduler=%v", health, withScheduler)
		}
		if rec.Header().Get("X-Request-ID") == "" || env.Metadata.RequestID != rec.Header().Get("X-Request-ID") {
			t.Errorf("request ID header %q, metadata %q", rec.Header().Get("X-Request-ID"), env.Metadata.RequestID)
		}
	}
}

func TestBackupStatus(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t, newArchiver(false), RateLimitConfig{})

	rec, env := do(t, h, http.MethodGet, "/api/v1/backup/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var st backup.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatal(err)
	}
	if st.Interval != "1h0m0s" || st.BackupInProgress || st.LastResult != nil {
		t.Errorf("status = %+v", st)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestBackupEndpointsWithoutScheduler(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t, nil, RateLimitConfig{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/backup/status"},
		{http.MethodPost, "/api/v1/backup/trigger"},
	} {
		rec, env := do(t, h, tc.method, tc.path, "")
		if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != models.ErrCodeSchedulerUnavailable {
			t.Errorf("%s %s = %d %+v", tc.method, tc.path, rec.Code, env.Error)
		}
	}
}

func TestBackupTriggerSync(t *testing.T) {
	t.Parallel()
	archiver := newArchiver(false)
	h, sched := newTestRouter(t, archiver, RateLimitConfig{})

	rec, env := do(t, h, http.MethodPost, "/api/v1/backup/trigger", `{"reason": "pre-upgrade", "async": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("trigger = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Started bool           `json:"started"`
		Reason  string         `json:"reason"`
		Async   bool           `json:"async"`
		Result  *backup.Result `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Started || resp.Async || resp.Reason != "pre-upgrade" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Result == nil || !resp.Result.Success || resp.Result.ArchiveSize != 2048 {
		t.Errorf("result = %+v", resp.Result)
	}
	if archiver.calls.Load() != 1 || sched.Status().LastResult.Reason != "pre-upgrade" {
		t.Errorf("calls = %d, status = %+v", archiver.calls.Load(), sched.Status().LastResult)
	}
}

func TestBackupTriggerAsyncAndConflict(t *testing.T) {
	t.Parallel()
	archiver := newArchiver(true)
	h, sched := newTestRouter(t, archiver, RateLimitConfig{})

	rec, env := do(t, h, http.MethodPost, "/api/v1/backup/trigger", "")
	if rec.Code != http.StatusAccepted || env.Status != models.StatusSuccess {
		t.Fatalf("first trigger = %d: %s", rec.Code, rec.Body.String())
	}
	select {
	case <-archiver.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("async backup did not start")
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/backup/trigger", `{"reason": "second"}`)
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != models.ErrCodeBackupInProgress {
		t.Errorf("second trigger = %d %+v", rec.Code, env.Error)
	}

	close(archiver.release)
	sched.Wait()

	if archiver.calls.Load() != 1 {
		t.Errorf("archiver calls = %d, want 1", archiver.calls.Load())
	}
	if res := sched.Status().LastResult; res == nil || res.Reason != backup.ReasonAPI {
		t.Errorf("last result = %+v, want reason %q", res, backup.ReasonAPI)
	}
}

func TestBackupTriggerAfterStop(t *testing.T) {
	t.Parallel()
	archiver := newArchiver(false)
	db := docdbtest.New("aqmon")
	connector := backup.ConnectorFunc(func(context.Context) (docdb.Database, error) { return db, nil })
	sched, err := backup.NewScheduler(backup.Config{Enabled: true, Dir: t.TempDir(), Interval: time.Hour}, connector, archiver)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	appCtx := app.New(config.Default())
	appCtx.SetScheduler(sched)
	h := NewRouter(appCtx, RouterConfig{Version: "test"})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-archiver.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled backup did not start")
	}
	if err := sched.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	rec, env := do(t, h, http.MethodPost, "/api/v1/backup/trigger", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != models.ErrCodeSchedulerUnavailable {
		t.Errorf("trigger after stop = %d %+v", rec.Code, env.Error)
	}
	if archiver.calls.Load() != 1 {
		t.Errorf("archiver calls = %d, want only the scheduled run", archiver.calls.Load())
	}
}

func TestBackupTriggerRejectsBadBodies(t *testing.T) {
	t.Parallel()
	archiver := newArchiver(false)
	h, _ := newTestRouter(t, archiver, RateLimitConfig{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `reason=now`, models.ErrCodeInvalidJSON},
		{"unknown field", `{"force": true}`, models.ErrCodeInvalidJSON},
		{"reason too long", `{"reason": "` + strings.Repeat("r", 65) + `"}`, models.ErrCodeValidation},
		{"reason with newline", `{"reason": "a\nb"}`, models.ErrCodeValidation},
	}
	for _, tt := range tests {
		rec, env := do(t, h, http.MethodPost, "/api/v1/backup/trigger", tt.body)
		if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != tt.code {
			t.Errorf("%s: %d %+v, want 400 %s", tt.name, rec.Code, env.Error, tt.code)
		}
	}
	if archiver.calls.Load() != 0 {
		t.Error("rejected requests must not start a backup")
	}
}

func TestRoutingErrors(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t, newArchiver(false), RateLimitConfig{})

	rec, env := do(t, h, http.MethodGet, "/api/v1/backup/trigger", "")
	if rec.Code != http.StatusMethodNotAllowed || env.Error == nil || env.Error.Code != models.ErrCodeMethodNotAllowed {
		t.Errorf("GET trigger = %d %+v", rec.Code, env.Error)
	}
	rec, env = do(t, h, http.MethodGet, "/api/v1/restore", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != models.ErrCodeNotFound {
		t.Errorf("unknown route = %d %+v", rec.Code, env.Error)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t, newArchiver(false), RateLimitConfig{Requests: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, h, http.MethodGet, "/api/v1/backup/status", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec, env := do(t, h, http.MethodGet, "/api/v1/backup/status", "")
	if rec.Code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("third request = %d %+v", rec.Code, env.Error)
	}

	// Health is outside the limited group
	if rec, _ := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health rate limited: %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t, newArchiver(false), RateLimitConfig{})
	do(t, h, http.MethodGet, "/health", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("aqmon_http_requests_total")) {
		t.Errorf("/metrics = %d, missing aqmon_http_requests_total", rec.Code)
	}
}
