// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
)

// DefaultBatchSize is the cursor batch size used when none is configured
const DefaultBatchSize = 1000

// Writer dumps a database into an archive
type Writer struct {
	batchSize int32
	now       func() time.Time
}

// NewWriter creates a Writer streaming collections in batches of batchSize
func NewWriter(batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{batchSize: int32(batchSize), now: time.Now} //nolint:gosec // G115: bounded by config validation
}

// WithClock replaces the clock used to timestamp archives
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Result describes a finished backup
type Result struct {
	ArchivePath string
	Size        int64
	StartedAt   time.Time
	Duration    time.Duration

	// Documents written per collection
	Collections map[string]int64

	// Views recorded in the views file
	Views []string

	// Namespaces not written (buckets, internal collections)
	Skipped []string

	// Collections whose dump failed, with the error; their files may be incomplete
	Failed map[string]string

	ManifestWritten bool
}

// Documents returns the total number of documents written
func (r *Result) Documents() int64 {
	var n int64
	for _, c := range r.Collections {
		n += c
	}
	return n
}

// Backup writes every collection of db into a new archive under outRoot.
// A failing collection is logged and recorded in the result; listing
// failures and tar failures are returned.
func (w *Writer) Backup(ctx context.Context, db docdb.Database, outRoot string, pretty bool) (*Result, error) {
	start := w.now()
	ts := start.UTC()
	res := &Result{
		StartedAt:   start,
		Collections: make(map[string]int64),
		Failed:      make(map[string]string),
	}

	workDir := WorkDir(outRoot, ts)
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, &Error{Op: "create work dir", Path: workDir, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logging.CtxWarn(ctx).Err(err).Str("dir", workDir).Msg("Failed to remove backup work directory")
		}
	}()

	names, err := db.ListCollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	sort.Strings(names)

	specs, err := db.ListCollectionSpecs(ctx)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Failed to read collection options, archive will have no manifest")
		specs = nil
	}
	byName := docdb.SpecsByName(specs)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch {
		case docdb.IsBucket(name):
			logging.CtxWarn(ctx).Str("collection", name).Msg("Skipping time-series bucket collection")
			res.Skipped = append(res.Skipped, name)
			continue
		case docdb.IsInternal(name):
			logging.CtxDebug(ctx).Str("collection", name).Msg("Skipping internal collection")
			res.Skipped = append(res.Skipped, name)
			continue
		case byName[name].Kind == docdb.KindView:
			continue
		}

		path := filepath.Join(workDir, DocumentFile(name))
		n, err := w.dumpCollection(ctx, db, name, path)
		if err != nil {
			logging.CtxErr(ctx, err).Str("collection", name).Int64("documents", n).Msg("Failed to dump collection, continuing")
			res.Failed[name] = err.Error()
			continue
		}
		res.Collections[name] = n
		logging.CtxDebug(ctx).Str("collection", name).Int64("documents", n).Msg("Collection dumped")
	}

	if views := ViewsFromSpecs(db.Name(), specs); len(views) > 0 {
		if err := writeViews(filepath.Join(workDir, ViewsFile), views); err != nil {
			return nil, err
		}
		for _, v := range views {
			res.Views = append(res.Views, v.Name())
		}
	}

	manifest, err := ManifestFromSpecs(specs)
	if err != nil {
		return nil, err
	}
	if len(manifest) > 0 {
		if err := WriteManifest(workDir, manifest, pretty); err != nil {
			return nil, err
		}
		res.ManifestWritten = true
	}

	res.ArchivePath = ArchivePath(outRoot, ts)
	res.Size, err = Pack(workDir, res.ArchivePath)
	if err != nil {
		return nil, err
	}
	res.Duration = w.now().Sub(start)

	logging.CtxInfo(ctx).
		Str("archive", res.ArchivePath).
		Str("size", humanize.Bytes(uint64(res.Size))). //nolint:gosec // G115: file size is non-negative
		Int("collections", len(res.Collections)).
		Int("views", len(res.Views)).
		Int("failed", len(res.Failed)).
		Int64("documents", res.Documents()).
		Msg("Backup archive created")

	return res, nil
}

// dumpCollection streams one collection to a document file
//
//nolint:gosec // G304: path is inside the work directory
func (w *Writer) dumpCollection(ctx context.Context, db docdb.Database, name, path string) (n int64, err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	bw := bufio.NewWriterSize(file, 1<<20)
	err = db.Stream(ctx, name, w.batchSize, func(raw bson.Raw) error {
		line, err := EncodeDocument(raw)
		if err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		n++
		return nil
	})
	if flushErr := bw.Flush(); err == nil {
		err = flushErr
	}
	return n, err
}

//nolint:gosec // G304: path is inside the work directory
func writeViews(path string, views []ViewDefinition) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return &Error{Op: "write views", Path: path, Err: err}
	}

	bw := bufio.NewWriter(file)
	for _, v := range views {
		line, err := EncodeDocument(v.Document())
		if err != nil {
			file.Close() //nolint:errcheck // Best effort cleanup on error
			return &Error{Op: "write views", Path: path, Err: err}
		}
		bw.Write(line)     //nolint:errcheck // Checked on Flush
		bw.WriteByte('\n') //nolint:errcheck // Checked on Flush
	}
	if err := bw.Flush(); err != nil {
		file.Close() //nolint:errcheck // Best effort cleanup on error
		return &Error{Op: "write views", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &Error{Op: "write views", Path: path, Err: err}
	}
	return nil
}
