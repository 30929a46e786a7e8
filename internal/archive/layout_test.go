// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"path/filepath"
	"testing"
	"time"
)

func TestArchiveName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := ArchiveName(ts); got != "backup_20260102_030405.tar" {
		t.Errorf("ArchiveName = %q", got)
	}
	if got := ArchivePath("/var/aqmon", ts); got != filepath.Join("/var/aqmon", "backup_data", "backup_20260102_030405.tar") {
		t.Errorf("ArchivePath = %q", got)
	}
}

func TestIsArchiveName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"backup_20260102_030405.tar", true},
		{"backup_20260102_030405.tar.tmp", false},
		{"backup_2026010_030405.tar", false},
		{"backup_20260102_030405.work", false},
		{"notes.txt", false},
		{"xbackup_20260102_030405.tar", false},
	}
	for _, tt := range tests {
		if got := IsArchiveName(tt.name); got != tt.want {
			t.Errorf("IsArchiveName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCollectionFromFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file   string
		want   string
		wantOK bool
	}{
		{"stations.jsonl", "stations", true},
		{"dir/readings.jsonl", "readings", true},
		{"system.buckets.readings.jsonl", "system.buckets.readings", true},
		{".jsonl", "", false},
		{"collections_metadata.json", "", false},
	}
	for _, tt := range tests {
		got, ok := CollectionFromFile(tt.file)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CollectionFromFile(%q) = %q, %v; want %q, %v", tt.file, got, ok, tt.want, tt.wantOK)
		}
	}

	if !IsViewsFile("system.views.jsonl") || IsViewsFile("views.jsonl") {
		t.Error("IsViewsFile misclassified names")
	}
	if !IsBucketName("system.buckets.readings") || IsBucketName("readings") {
		t.Error("IsBucketName misclassified names")
	}
}
