// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/metrics"
)

// Snapshotter takes the safety backup before a restore; implemented by archive.Writer
type Snapshotter interface {
	Backup(ctx context.Context, db docdb.Database, outRoot string, pretty bool) (*archive.Result, error)
}

// Executor restores archives into one database
type Executor struct {
	db          docdb.Database
	snapshotter Snapshotter
	now         func() time.Time
}

// NewExecutor creates an executor for db
func NewExecutor(db docdb.Database, snapshotter Snapshotter) *Executor {
	return &Executor{db: db, snapshotter: snapshotter, now: time.Now}
}

// creation holds the options a collection is created with
type creation struct {
	TimeSeries *docdb.TimeSeriesSpec
	Inferred   bool

	Validator        bson.D
	ValidationLevel  string
	ValidationAction string
}

// Run restores the archive at archivePath. The returned report is never nil.
// A non-nil error means the run stopped: ErrAborted at the confirmation
// gate, ErrSnapshotFailed before any change, or an I/O or database failure.
// Per-document and per-view failures do not stop the run; see Report.Err.
func (e *Executor) Run(ctx context.Context, archivePath string, opts Options) (report *Report, err error) {
	opts = opts.withDefaults()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	report = &Report{ArchivePath: archivePath, Database: e.db.Name(), StartedAt: e.now()}
	defer func() {
		report.Duration = e.now().Sub(report.StartedAt)
		metrics.RecordRestoreRun(runResult(report, err))
		if err != nil {
			logging.CtxErr(ctx, err).Str("archive", archivePath).Msg("Restore stopped")
		}
	}()

	// Extract
	workDir, cleanup, err := makeWorkDir(opts.WorkDir)
	if err != nil {
		return report, err
	}
	defer cleanup()

	files, err := archive.Unpack(archivePath, workDir)
	if err != nil {
		return report, err
	}
	contents, err := archive.Inspect(ctx, workDir, files)
	if err != nil {
		return report, err
	}
	report.SkippedBuckets = contents.Buckets
	logging.CtxInfo(ctx).
		Str("archive", archivePath).
		Int("collections", len(contents.Collections)).
		Int("views", len(contents.Views)).
		Msg("Archive extracted")

	// Plan
	specs, err := e.db.ListCollectionSpecs(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list target collections: %w", err)
	}
	existing := make(map[string]docdb.CollectionSpec, len(specs))
	current := make([]string, 0, len(specs))
	for _, s := range specs {
		if docdb.IsInternal(s.Name) {
			continue
		}
		existing[s.Name] = s
		current = append(current, s.Name)
	}

	plan := BuildPlan(current, contents.Names())
	report.Plan = plan

	creations, err := e.planCreations(contents, existing, opts)
	if err != nil {
		return report, err
	}
	printPlan(opts.Out, report, creations)

	if opts.DryRun {
		report.DryRun = true
		logging.CtxInfo(ctx).Msg("Dry run, no changes made")
		return report, nil
	}

	// Confirmation gate
	if !opts.Yes {
		if err := confirm(ctx, opts.Confirm, e.db.Name()); err != nil {
			return report, err
		}
	}

	// Safety snapshot
	if !opts.NoSnapshot {
		path, err := e.snapshot(ctx, opts.SnapshotDir)
		if err != nil {
			return report, err
		}
		report.SnapshotPath = path
		fmt.Fprintf(opts.Out, "Safety snapshot: %s\n", path)
	}

	// Validators
	var saved []savedValidator
	if opts.Force {
		saved = disableValidators(ctx, e.db, existing, plan.ToRestore)
	}

	// Prepare
	fresh, err := e.prepare(ctx, contents, existing, creations, opts, &saved, report)
	if err != nil {
		return report, err
	}

	// Load documents; views come after every collection
	for _, name := range contents.Collections {
		target := loadTarget{Name: name}
		if c, ok := creations[name]; ok && fresh[name] {
			target.TimeSeries = c.TimeSeries
		} else if spec, ok := existing[name]; ok {
			target.TimeSeries = spec.TimeSeries
		}
		target.SkipExisting = target.TimeSeries != nil && !fresh[name]

		res := e.loadCollection(ctx, contents.FilePath(name), target, opts.BatchSize)
		report.Collections = append(report.Collections, res)
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return report, res.Err
		}
	}

	report.Views = e.restoreViews(ctx, contents, opts)

	if opts.Force {
		report.Validators = reapplyValidators(ctx, e.db, saved)
	}

	// Verify
	report.Verification = Verify(ctx, e.db, contents, opts.VerifySampleSize)

	report.Duration = e.now().Sub(report.StartedAt)
	printResults(opts.Out, report)

	logging.CtxInfo(ctx).
		Str("archive", archivePath).
		Bool("verified", report.Verification.OK()).
		Dur("duration", report.Duration).
		Msg("Restore completed")
	return report, nil
}

// planCreations decides how every collection that will be created is created:
// time-series options from the manifest, then from the existing collection,
// then by inference; validator from the manifest, then from the existing collection.
func (e *Executor) planCreations(contents *archive.Contents, existing map[string]docdb.CollectionSpec, opts Options) (map[string]creation, error) {
	out := make(map[string]creation)
	for _, name := range contents.Collections {
		spec, exists := existing[name]
		if exists && !opts.ReplaceExisting && spec.Kind != docdb.KindView {
			continue
		}

		var c creation
		if ts, ok := contents.Manifest.TimeSeries(name); ok {
			c.TimeSeries = ts
		} else if exists && spec.TimeSeries != nil {
			ts := *spec.TimeSeries
			c.TimeSeries = &ts
		} else if opts.InferTimeSeries {
			sample, err := archive.SampleDocuments(contents.FilePath(name), opts.Inference.SampleSize)
			if err != nil {
				return nil, &archive.Error{Op: "sample", Path: contents.FilePath(name), Err: err}
			}
			c.TimeSeries = InferTimeSeries(sample, opts.Inference)
			c.Inferred = c.TimeSeries != nil
		}

		validator, err := contents.Manifest.Validator(name)
		if err != nil {
			return nil, err
		}
		if len(validator) > 0 {
			mo := contents.Manifest[name]
			c.Validator, c.ValidationLevel, c.ValidationAction = validator, mo.ValidationLevel, mo.ValidationAction
		} else if exists && len(spec.Validator) > 0 {
			c.Validator, c.ValidationLevel, c.ValidationAction = spec.Validator, spec.ValidationLevel, spec.ValidationAction
		}
		out[name] = c
	}
	return out, nil
}

// prepare drops and creates collections so the target's set matches the archive.
// It returns the collections created in this run.
func (e *Executor) prepare(ctx context.Context, contents *archive.Contents, existing map[string]docdb.CollectionSpec,
	creations map[string]creation, opts Options, saved *[]savedValidator, report *Report) (map[string]bool, error) {
	fresh := make(map[string]bool, len(creations))

	for _, name := range contents.Collections {
		c, ok := creations[name]
		if !ok {
			continue
		}
		_, exists := existing[name]
		if exists {
			if err := e.db.DropCollection(ctx, name); err != nil {
				return fresh, fmt.Errorf("failed to drop %s: %w", name, err)
			}
		}

		createOpts := docdb.CreateOptions{TimeSeries: c.TimeSeries}
		if len(c.Validator) > 0 {
			if opts.Force {
				if !hasSaved(*saved, name) {
					*saved = append(*saved, savedValidator{Name: name, Validator: c.Validator, Action: c.ValidationAction})
				}
			} else {
				createOpts.Validator = c.Validator
				createOpts.ValidationLevel = c.ValidationLevel
				createOpts.ValidationAction = c.ValidationAction
			}
		}
		if err := e.db.CreateCollection(ctx, name, createOpts); err != nil {
			return fresh, fmt.Errorf("failed to create %s: %w", name, err)
		}
		fresh[name] = true

		report.Prepared = append(report.Prepared, PreparedCollection{
			Name:       name,
			Recreated:  exists,
			TimeSeries: c.TimeSeries,
			Inferred:   c.Inferred,
		})
		event := logging.CtxInfo(ctx).Str("collection", name).Bool("recreated", exists)
		if c.TimeSeries != nil {
			event = event.Str("time_field", c.TimeSeries.TimeField).Bool("inferred", c.Inferred)
		}
		event.Msg("Collection prepared")
	}

	for _, name := range report.Plan.ToDrop {
		if err := e.db.DropCollection(ctx, name); err != nil {
			return fresh, fmt.Errorf("failed to drop %s: %w", name, err)
		}
		report.Dropped = append(report.Dropped, name)
		logging.CtxInfo(ctx).Str("collection", name).Msg("Collection dropped, not in archive")
	}
	return fresh, nil
}

// snapshot backs up the target before any change; any failure aborts the restore
func (e *Executor) snapshot(ctx context.Context, dir string) (string, error) {
	if e.snapshotter == nil {
		return "", fmt.Errorf("%w: no snapshot writer configured", ErrSnapshotFailed)
	}
	res, err := e.snapshotter.Backup(ctx, e.db, dir, false)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSnapshotFailed, err)
	}
	if len(res.Failed) > 0 {
		return res.ArchivePath, fmt.Errorf("%w: %d collections could not be dumped", ErrSnapshotFailed, len(res.Failed))
	}
	logging.CtxInfo(ctx).
		Str("archive", res.ArchivePath).
		Str("size", humanize.Bytes(uint64(res.Size))). //nolint:gosec // G115: size is non-negative
		Msg("Safety snapshot written")
	return res.ArchivePath, nil
}

func confirm(ctx context.Context, c Confirmer, dbName string) error {
	if c == nil {
		return fmt.Errorf("%w: %w", ErrAborted, ErrNotInteractive)
	}
	prompt := fmt.Sprintf("This will modify database %q as shown above.", dbName)
	ok, err := c.Confirm(ctx, prompt, ConfirmPhrase)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// makeWorkDir returns the extraction directory and its cleanup.
// A caller-supplied directory is kept; a temporary one is removed.
func makeWorkDir(dir string) (string, func(), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", nil, &archive.Error{Op: "create work dir", Path: dir, Err: err}
		}
		return dir, func() {}, nil
	}
	tmp, err := os.MkdirTemp("", "aqmon-restore-*")
	if err != nil {
		return "", nil, &archive.Error{Op: "create work dir", Err: err}
	}
	return tmp, func() {
		if err := os.RemoveAll(tmp); err != nil {
			logging.Warn().Err(err).Str("dir", tmp).Msg("Failed to remove restore work dir")
		}
	}, nil
}

func runResult(report *Report, err error) string {
	switch {
	case errors.Is(err, ErrAborted):
		return metrics.ResultAborted
	case err != nil:
		return metrics.ResultFailure
	case report.DryRun:
		return metrics.ResultDryRun
	case report.Err() != nil:
		return metrics.ResultFailure
	default:
		return metrics.ResultSuccess
	}
}

func printPlan(w io.Writer, report *Report, creations map[string]creation) {
	fmt.Fprintf(w, "Restore plan for database %q from %s\n", report.Database, report.ArchivePath)
	fmt.Fprint(w, report.Plan.Summary())
	for _, b := range report.SkippedBuckets {
		fmt.Fprintf(w, "skipped bucket file: %s\n", b)
	}
	if len(creations) == 0 {
		return
	}

	table := uitable.New()
	table.AddRow("COLLECTION", "ACTION", "KIND", "TIME FIELD", "META FIELD", "SOURCE")
	for _, name := range report.Plan.ToRestore {
		c, ok := creations[name]
		if !ok {
			continue
		}
		action := "recreate"
		if report.Plan.Creates(name) {
			action = "create"
		}
		kind, timeField, metaField, source := string(docdb.KindRegular), "-", "-", "-"
		if c.TimeSeries != nil {
			kind, timeField, source = string(docdb.KindTimeSeries), c.TimeSeries.TimeField, "manifest"
			if c.TimeSeries.MetaField != "" {
				metaField = c.TimeSeries.MetaField
			}
			if c.Inferred {
				source = "inferred"
			}
		}
		table.AddRow(name, action, kind, timeField, metaField, source)
	}
	fmt.Fprintln(w, table)
}

func printResults(w io.Writer, report *Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, report.ResultsTable())
	for _, v := range report.ValidatorErrors() {
		fmt.Fprintf(w, "validator not reapplied on %s: %v\n", v.Name, v.Err)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, report.Verification.Table())
	fmt.Fprintln(w, report.Summary())
}
