// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeArchive creates a file in dir with the given modification time
func writeArchive(t *testing.T, dir, name string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("archive"), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestApplyRetentionByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	day0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	day10 := day0.AddDate(0, 0, 10)
	day20 := day0.AddDate(0, 0, 20)

	writeArchive(t, dir, "backup_20260101_120000.tar", day0)
	writeArchive(t, dir, "backup_20260111_120000.tar", day10)
	writeArchive(t, dir, "backup_20260121_120000.tar", day20)

	deleted, err := ApplyRetention(dir, 14, day20)
	if err != nil {
		t.Fatalf("ApplyRetention: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "backup_20260101_120000.tar" {
		t.Errorf("deleted = %v, want only the day-0 archive", deleted)
	}

	if exists(filepath.Join(dir, "backup_20260101_120000.tar")) {
		t.Error("day-0 archive should be deleted")
	}
	for _, name := range []string{"backup_20260111_120000.tar", "backup_20260121_120000.tar"} {
		if !exists(filepath.Join(dir, name)) {
			t.Errorf("%s should be kept", name)
		}
	}
}

func TestApplyRetentionDisabled(t *testing.T) {
	t.Parallel()

	for _, days := range []int{0, -1} {
		dir := t.TempDir()
		old := time.Now().AddDate(-1, 0, 0)
		writeArchive(t, dir, "backup_20250101_000000.tar", old)

		deleted, err := ApplyRetention(dir, days, time.Now())
		if err != nil || len(deleted) != 0 {
			t.Errorf("retention %d: deleted=%v err=%v, want nothing", days, deleted, err)
		}
		if !exists(filepath.Join(dir, "backup_20250101_000000.tar")) {
			t.Errorf("retention %d should not delete anything", days)
		}
	}
}

func TestApplyRetentionIgnoresOtherFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	old := time.Now().AddDate(0, -3, 0)

	writeArchive(t, dir, "notes.tar", old)
	writeArchive(t, dir, "backup_20250101_000000.tar.tmp", old)
	writeArchive(t, dir, "backup_20250101_000000.tar", old)
	if err := os.Mkdir(filepath.Join(dir, "backup_20250102_000000.tar"), 0o750); err != nil {
		t.Fatal(err)
	}

	deleted, err := ApplyRetention(dir, 7, time.Now())
	if err != nil {
		t.Fatalf("ApplyRetention: %v", err)
	}
	if len(deleted) != 1 {
		t.Errorf("deleted = %v, want only the matching archive file", deleted)
	}
	for _, name := range []string{"notes.tar", "backup_20250101_000000.tar.tmp", "backup_20250102_000000.tar"} {
		if !exists(filepath.Join(dir, name)) {
			t.Errorf("%s should not be touched", name)
		}
	}
}

func TestApplyRetentionMissingDir(t *testing.T) {
	t.Parallel()

	deleted, err := ApplyRetention(filepath.Join(t.TempDir(), "missing"), 7, time.Now())
	if err != nil || deleted != nil {
		t.Errorf("missing dir: deleted=%v err=%v", deleted, err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.Dir = "" }, false},
		{"missing dir", func(c *Config) { c.Dir = "" }, true},
		{"interval too short", func(c *Config) { c.Interval = time.Second }, true},
		{"negative stop timeout", func(c *Config) { c.StopTimeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
