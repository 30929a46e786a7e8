// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"context"
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
)

// Verification statuses
const (
	StatusOK            = "OK"
	StatusMismatch      = "MISMATCH"
	StatusNotApplicable = "N/A"
)

// VerifyRow is the verification result of one collection
type VerifyRow struct {
	Name               string
	FileLines          int64
	DBCount            int64
	ArchiveFingerprint string
	DBFingerprint      string
	Status             string
	Note               string
}

// Verification holds the rows of one verification pass
type Verification struct {
	SampleSize int
	Rows       []VerifyRow
}

// OK reports whether no row is a mismatch
func (v *Verification) OK() bool {
	return len(v.Mismatches()) == 0
}

// Mismatches returns the rows whose status is MISMATCH
func (v *Verification) Mismatches() []VerifyRow {
	var out []VerifyRow
	for _, r := range v.Rows {
		if r.Status == StatusMismatch {
			out = append(out, r)
		}
	}
	return out
}

// Table renders the verification rows
func (v *Verification) Table() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 40
	table.RightAlign(1)
	table.RightAlign(2)

	table.AddRow("COLLECTION", "FILE", "DB", "ARCHIVE HASH", "DB HASH", "STATUS")
	for _, r := range v.Rows {
		file, db := fmt.Sprint(r.FileLines), fmt.Sprint(r.DBCount)
		if r.Status == StatusNotApplicable {
			db = "-"
			if r.Note == "view" {
				file = "-"
			}
		}
		table.AddRow(r.Name, file, db, short(r.ArchiveFingerprint), short(r.DBFingerprint), r.Status)
	}
	return table
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// Verify compares every archived collection with the database: the file line
// count against the document count, and a fingerprint of the first
// sampleSize archived documents against the same documents fetched by _id.
// Views are reported as N/A. Verify never modifies the database; a failure to
// count degrades the row to N/A.
func Verify(ctx context.Context, db docdb.Database, contents *archive.Contents, sampleSize int) *Verification {
	if sampleSize <= 0 {
		sampleSize = DefaultVerifySampleSize
	}
	v := &Verification{SampleSize: sampleSize}

	specs, err := db.ListCollectionSpecs(ctx)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Verification could not list collections; time fields are compared as stored")
	}
	byName := docdb.SpecsByName(specs)

	for _, name := range contents.Collections {
		row := verifyCollection(ctx, db, contents.FilePath(name), name, byName[name].TimeSeries, sampleSize)
		v.Rows = append(v.Rows, row)
	}
	for _, view := range contents.Views {
		v.Rows = append(v.Rows, VerifyRow{Name: view.Name(), Status: StatusNotApplicable, Note: "view"})
	}
	sort.Slice(v.Rows, func(i, j int) bool { return v.Rows[i].Name < v.Rows[j].Name })
	return v
}

func verifyCollection(ctx context.Context, db docdb.Database, path, name string, ts *docdb.TimeSeriesSpec, sampleSize int) VerifyRow {
	row := VerifyRow{Name: name, Status: StatusNotApplicable}

	lines, err := archive.CountLines(path)
	if err != nil {
		row.Note = "read archive: " + err.Error()
		return row
	}
	row.FileLines = lines

	count, err := db.CountDocuments(ctx, name)
	if err != nil {
		logging.CtxDebug(ctx).Err(err).Str("collection", name).Msg("Count failed during verification")
		row.Note = "count: " + err.Error()
		return row
	}
	row.DBCount = count

	sample, err := archive.SampleDocuments(path, sampleSize)
	if err != nil {
		row.Note = "sample: " + err.Error()
		return row
	}
	if ts != nil {
		for i := range sample {
			sample[i] = coerceTimeField(sample[i], ts.TimeField)
		}
	}

	archiveDocs, dbDocs, err := matchSample(ctx, db, name, sample)
	if err != nil {
		row.Note = "fetch sample: " + err.Error()
		return row
	}

	if row.ArchiveFingerprint, err = archive.Fingerprint(archiveDocs); err != nil {
		row.Note = err.Error()
		return row
	}
	if row.DBFingerprint, err = archive.Fingerprint(dbDocs); err != nil {
		row.Note = err.Error()
		return row
	}

	row.Status = StatusOK
	if row.FileLines != row.DBCount || row.ArchiveFingerprint != row.DBFingerprint {
		row.Status = StatusMismatch
	}
	return row
}

// matchSample fetches the sampled documents by _id and returns both sides in
// sample order. Sampled documents without an _id are left out of both sides;
// a missing database document is left out of the database side only.
func matchSample(ctx context.Context, db docdb.Database, name string, sample []bson.D) ([]bson.D, []bson.D, error) {
	var (
		ids        []interface{}
		keys       []string
		archiveOut []bson.D
	)
	for _, doc := range sample {
		id, ok := archive.DocumentID(doc)
		if !ok {
			continue
		}
		key, err := archive.IDKey(id)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		keys = append(keys, key)
		archiveOut = append(archiveOut, doc)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	found, err := db.FindByIDs(ctx, name, ids)
	if err != nil {
		return nil, nil, err
	}
	byKey := make(map[string]bson.D, len(found))
	for _, doc := range found {
		id, ok := archive.DocumentID(doc)
		if !ok {
			continue
		}
		key, err := archive.IDKey(id)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := byKey[key]; !seen {
			byKey[key] = doc
		}
	}

	dbOut := make([]bson.D, 0, len(keys))
	for _, key := range keys {
		if doc, ok := byKey[key]; ok {
			dbOut = append(dbOut, doc)
		}
	}
	return archiveOut, dbOut, nil
}
