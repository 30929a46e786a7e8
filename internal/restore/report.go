// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// PreparedCollection records how a collection was created or recreated
type PreparedCollection struct {
	Name       string
	Recreated  bool
	TimeSeries *docdb.TimeSeriesSpec

	// TimeSeries came from sampling instead of the manifest
	Inferred bool
}

// CollectionResult is the outcome of loading one collection file
type CollectionResult struct {
	Name       string
	FileLines  int64
	Inserted   int
	Duplicates int

	// Documents rejected for reasons other than a duplicate key
	Failed int

	// Lines that could not be decoded
	DecodeErrors int

	// First few failure messages, for the report
	Samples []string

	// Set when loading stopped early
	Err error
}

// ViewResult is the outcome of recreating one view
type ViewResult struct {
	Name   string
	ViewOn string

	// Time-series collection created for a bucket source, if any
	CreatedSource string

	Err error
}

// ValidatorResult is the outcome of reapplying one validator
type ValidatorResult struct {
	Name string
	Err  error
}

// Report describes a finished (or stopped) restore
type Report struct {
	ArchivePath string
	Database    string
	Plan        Plan
	DryRun      bool

	// Bucket files found in the archive and skipped
	SkippedBuckets []string

	SnapshotPath string

	Dropped      []string
	Prepared     []PreparedCollection
	Collections  []CollectionResult
	Views        []ViewResult
	Validators   []ValidatorResult
	Verification *Verification

	StartedAt time.Time
	Duration  time.Duration
}

// Totals sums the per-collection results
func (r *Report) Totals() (inserted, duplicates, failed int) {
	for _, c := range r.Collections {
		inserted += c.Inserted
		duplicates += c.Duplicates
		failed += c.Failed + c.DecodeErrors
	}
	return inserted, duplicates, failed
}

// Err aggregates real failures: rejected documents, stopped collections,
// failed views and verification mismatches. Validator reapply failures are
// reported but not included.
func (r *Report) Err() error {
	var errs *multierror.Error
	for _, c := range r.Collections {
		if c.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
		if n := c.Failed + c.DecodeErrors; n > 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: %d documents failed to restore", c.Name, n))
		}
	}
	for _, v := range r.Views {
		if v.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("view %s: %w", v.Name, v.Err))
		}
	}
	if r.Verification != nil {
		for _, row := range r.Verification.Mismatches() {
			errs = multierror.Append(errs, fmt.Errorf("%s: verification mismatch (file=%d db=%d)", row.Name, row.FileLines, row.DBCount))
		}
	}
	return errs.ErrorOrNil()
}

// ValidatorErrors returns the validators that could not be reapplied
func (r *Report) ValidatorErrors() []ValidatorResult {
	var out []ValidatorResult
	for _, v := range r.Validators {
		if v.Err != nil {
			out = append(out, v)
		}
	}
	return out
}

// ResultsTable renders per-collection load results
func (r *Report) ResultsTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	for _, col := range []int{1, 2, 3, 4} {
		table.RightAlign(col)
	}

	table.AddRow("COLLECTION", "LINES", "INSERTED", "DUPLICATES", "FAILED", "ERROR")
	for _, c := range r.Collections {
		msg := ""
		if c.Err != nil {
			msg = c.Err.Error()
		} else if len(c.Samples) > 0 {
			msg = c.Samples[0]
		}
		table.AddRow(c.Name, c.FileLines, c.Inserted, c.Duplicates, c.Failed+c.DecodeErrors, msg)
	}
	for _, v := range r.Views {
		msg := "view on " + v.ViewOn
		if v.Err != nil {
			msg = v.Err.Error()
		}
		table.AddRow(v.Name, "-", "-", "-", "-", msg)
	}
	return table
}

// Summary is a one-line description of the run
func (r *Report) Summary() string {
	inserted, duplicates, failed := r.Totals()
	return fmt.Sprintf("restored %s documents into %d collections (%s duplicates skipped, %s failed) in %s",
		humanize.Comma(int64(inserted)), len(r.Collections),
		humanize.Comma(int64(duplicates)), humanize.Comma(int64(failed)),
		r.Duration.Round(time.Millisecond))
}
