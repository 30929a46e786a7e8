// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/metrics"
)

// maxFailureSamples bounds the failure messages kept per collection
const maxFailureSamples = 5

// loadTarget describes the collection a file is loaded into
type loadTarget struct {
	Name string

	// Non-nil when the target is a time-series collection
	TimeSeries *docdb.TimeSeriesSpec

	// Existing _ids are skipped before insert; set for time-series targets
	// that were not created in this run, which have no unique _id index
	SkipExisting bool
}

func (r *CollectionResult) addSample(msg string) {
	if len(r.Samples) < maxFailureSamples {
		r.Samples = append(r.Samples, msg)
	}
}

// loadCollection streams one collection file into the database in unordered batches
func (e *Executor) loadCollection(ctx context.Context, path string, target loadTarget, batchSize int) CollectionResult {
	res := CollectionResult{Name: target.Name}

	lines, err := archive.CountLines(path)
	if err != nil {
		res.Err = fmt.Errorf("read archive file: %w", err)
		return res
	}
	res.FileLines = lines

	batch := make([]bson.D, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch = batch[:0] }()
		if err := ctx.Err(); err != nil {
			return err
		}

		docs := batch
		if target.SkipExisting {
			kept, skipped, err := e.withoutExisting(ctx, target.Name, batch)
			if err != nil {
				return fmt.Errorf("check existing ids: %w", err)
			}
			res.Duplicates += skipped
			if len(kept) == 0 {
				return nil
			}
			docs = kept
		}

		values := make([]interface{}, len(docs))
		for i, d := range docs {
			values[i] = d
		}
		br, err := e.db.InsertMany(ctx, target.Name, values)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		res.Inserted += br.InsertedCount
		res.Duplicates += br.DuplicateCount
		res.Failed += len(br.OtherErrors)
		for _, f := range br.OtherErrors {
			res.addSample(fmt.Sprintf("code %d: %s", f.Code, f.Message))
		}
		if len(br.OtherErrors) > 0 {
			logging.CtxWarn(ctx).
				Str("collection", target.Name).
				Int("failed", len(br.OtherErrors)).
				Int("code", br.OtherErrors[0].Code).
				Str("first_error", br.OtherErrors[0].Message).
				Msg("Documents rejected during restore")
		}
		return nil
	}

	err = archive.ReadDocuments(path, func(line int, doc bson.D, decodeErr error) error {
		if decodeErr != nil {
			res.DecodeErrors++
			res.addSample(fmt.Sprintf("line %d: %v", line, decodeErr))
			return nil
		}
		if target.TimeSeries != nil {
			doc = coerceTimeField(doc, target.TimeSeries.TimeField)
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		res.Err = err
	}

	metrics.RecordRestoreDocuments(res.Inserted, res.Duplicates, res.Failed+res.DecodeErrors)
	logging.CtxInfo(ctx).
		Str("collection", target.Name).
		Int64("file_lines", res.FileLines).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("failed", res.Failed+res.DecodeErrors).
		Msg("Collection restored")
	return res
}

// withoutExisting drops documents whose _id is already stored and returns how many were dropped
func (e *Executor) withoutExisting(ctx context.Context, name string, batch []bson.D) ([]bson.D, int, error) {
	ids := make([]interface{}, 0, len(batch))
	for _, doc := range batch {
		if id, ok := archive.DocumentID(doc); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return batch, 0, nil
	}

	found, err := e.db.FindByIDs(ctx, name, ids)
	if err != nil {
		return nil, 0, err
	}
	if len(found) == 0 {
		return batch, 0, nil
	}

	stored := make(map[string]bool, len(found))
	for _, doc := range found {
		id, _ := archive.DocumentID(doc)
		key, err := archive.IDKey(id)
		if err != nil {
			return nil, 0, err
		}
		stored[key] = true
	}

	out := make([]bson.D, 0, len(batch))
	for _, doc := range batch {
		if id, ok := archive.DocumentID(doc); ok {
			key, err := archive.IDKey(id)
			if err != nil {
				return nil, 0, err
			}
			if stored[key] {
				continue
			}
		}
		out = append(out, doc)
	}
	return out, len(batch) - len(out), nil
}
