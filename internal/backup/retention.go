// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/logging"
)

// shouldDeleteByAge returns true if an archive modified at modTime is past retention
func shouldDeleteByAge(modTime time.Time, retentionDays int, now time.Time) bool {
	if retentionDays <= 0 {
		return false
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	return modTime.Before(cutoff)
}

// ApplyRetention deletes archives in dir whose modification time is older than
// now minus retentionDays and returns the deleted file names. Files not matching
// the archive naming pattern are never touched. retentionDays <= 0 disables cleanup.
func ApplyRetention(dir string, retentionDays int, now time.Time) ([]string, error) {
	if retentionDays <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var (
		deleted []string
		errs    *multierror.Error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !archive.IsArchiveName(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stat %s: %w", e.Name(), err))
			continue
		}
		if !shouldDeleteByAge(info.ModTime(), retentionDays, now) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("remove %s: %w", e.Name(), err))
			continue
		}
		deleted = append(deleted, e.Name())
		logging.Info().
			Str("archive", e.Name()).
			Time("modified", info.ModTime()).
			Int("retention_days", retentionDays).
			Msg("Deleted expired backup archive")
	}

	sort.Strings(deleted)
	return deleted, errs.ErrorOrNil()
}
