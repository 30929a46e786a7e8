// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/docdb/docdbtest"
)

var baseTime = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

var usersValidator = bson.D{{Key: "$jsonSchema", Value: bson.D{{Key: "required", Value: bson.A{"email"}}}}}

// seedStations inserts the station documents into db
func seedStations(t *testing.T, db *docdbtest.Database) {
	t.Helper()
	docs := []interface{}{
		bson.D{
			{Key: "_id", Value: "berlin"},
			{Key: "name", Value: "Berlin Mitte"},
			{Key: "location", Value: bson.D{{Key: "lat", Value: 52.52}, {Key: "lon", Value: 13.405}}},
			{Key: "tags", Value: bson.A{"urban", "traffic"}},
			{Key: "installed", Value: primitive.NewDateTimeFromTime(baseTime.AddDate(-2, 0, 0))},
		},
		bson.D{
			{Key: "_id", Value: "paris"},
			{Key: "name", Value: "Paris 1er"},
			{Key: "location", Value: bson.D{{Key: "lat", Value: 48.86}, {Key: "lon", Value: 2.35}}},
			{Key: "tags", Value: bson.A{"urban"}},
			{Key: "installed", Value: primitive.NewDateTimeFromTime(baseTime.AddDate(-1, 0, 0))},
		},
		bson.D{
			{Key: "_id", Value: "oslo"},
			{Key: "name", Value: "Oslo Sentrum"},
			{Key: "location", Value: bson.D{{Key: "lat", Value: 59.91}, {Key: "lon", Value: 10.75}}},
			{Key: "tags", Value: bson.A{"suburban"}},
			{Key: "installed", Value: primitive.NewDateTimeFromTime(baseTime.AddDate(0, -6, 0))},
		},
	}
	if _, err := db.InsertMany(context.Background(), "stations", docs); err != nil {
		t.Fatalf("seed stations: %v", err)
	}
}

// seedReadings creates the readings time-series collection with n documents
func seedReadings(t *testing.T, db *docdbtest.Database, n int) {
	t.Helper()
	ctx := context.Background()
	if err := db.CreateCollection(ctx, "readings", docdb.CreateOptions{
		TimeSeries: &docdb.TimeSeriesSpec{TimeField: "ts", MetaField: "meta", Granularity: "hours"},
	}); err != nil {
		t.Fatalf("create readings: %v", err)
	}
	docs := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "ts", Value: primitive.NewDateTimeFromTime(baseTime.Add(time.Duration(i) * time.Hour))},
			{Key: "meta", Value: bson.D{{Key: "station", Value: "berlin"}, {Key: "sensor", Value: "pm"}}},
			{Key: "pm25", Value: 3.5 + float64(i)/4},
			{Key: "station_ref", Value: primitive.NewObjectID()},
		})
	}
	if _, err := db.InsertMany(ctx, "readings", docs); err != nil {
		t.Fatalf("seed readings: %v", err)
	}
}

// newSourceDatabase builds a database with every collection kind
func newSourceDatabase(t *testing.T) *docdbtest.Database {
	t.Helper()
	ctx := context.Background()
	db := docdbtest.New("aqmon")

	seedStations(t, db)
	seedReadings(t, db, 12)

	if err := db.CreateCollection(ctx, "users", docdb.CreateOptions{Validator: usersValidator, ValidationLevel: docdb.ValidationStrict}); err != nil {
		t.Fatalf("create users: %v", err)
	}
	if _, err := db.InsertMany(ctx, "users", []interface{}{
		bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "ana@example.org"}},
		bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "bo@example.org"}},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	if err := db.CreateView(ctx, "latest_readings", "readings", bson.A{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "ts", Value: -1}}}},
	}); err != nil {
		t.Fatalf("create view: %v", err)
	}
	return db
}

// backupOf writes an archive of db and returns its path
func backupOf(t *testing.T, db docdb.Database) string {
	t.Helper()
	res, err := archive.NewWriter(5).Backup(context.Background(), db, t.TempDir(), false)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if len(res.Failed) > 0 {
		t.Fatalf("backup had failed collections: %v", res.Failed)
	}
	return res.ArchivePath
}

// packFiles writes an archive holding the given files verbatim
func packFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	src := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	path := filepath.Join(t.TempDir(), "backup_20260301_060000.tar")
	if _, err := archive.Pack(src, path); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return path
}

// jsonLines joins JSON documents into a document file
func jsonLines(docs ...string) string {
	return strings.Join(docs, "\n") + "\n"
}

// testOptions returns non-interactive options without a snapshot
func testOptions(out *bytes.Buffer) Options {
	opts := DefaultOptions()
	opts.Yes = true
	opts.NoSnapshot = true
	opts.BatchSize = 4
	opts.Out = out
	return opts
}

func countOf(t *testing.T, db *docdbtest.Database, name string) int64 {
	t.Helper()
	n, err := db.CountDocuments(context.Background(), name)
	if err != nil {
		t.Fatalf("count %s: %v", name, err)
	}
	return n
}

func fingerprintOf(t *testing.T, docs []bson.D) string {
	t.Helper()
	fp, err := archive.Fingerprint(docs)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	return fp
}
