// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

//go:build integration

package testinfra

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/restore"
)

func seedSource(t *testing.T, ctx context.Context, db docdb.Database) {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	stations := []interface{}{
		bson.D{{Key: "_id", Value: "berlin"}, {Key: "name", Value: "Berlin Mitte"}},
		bson.D{{Key: "_id", Value: "oslo"}, {Key: "name", Value: "Oslo Sentrum"}},
	}
	if _, err := db.InsertMany(ctx, "stations", stations); err != nil {
		t.Fatalf("seed stations: %v", err)
	}

	if err := db.CreateCollection(ctx, "readings", docdb.CreateOptions{
		TimeSeries: &docdb.TimeSeriesSpec{TimeField: "ts", MetaField: "meta", Granularity: "hours"},
	}); err != nil {
		t.Fatalf("create readings: %v", err)
	}
	readings := make([]interface{}, 0, 48)
	for i := 0; i < 48; i++ {
		readings = append(readings, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "ts", Value: primitive.NewDateTimeFromTime(base.Add(time.Duration(i) * time.Hour))},
			{Key: "meta", Value: bson.D{{Key: "station", Value: "berlin"}}},
			{Key: "pm25", Value: float64(i) / 2},
		})
	}
	if _, err := db.InsertMany(ctx, "readings", readings); err != nil {
		t.Fatalf("seed readings: %v", err)
	}

	validator := bson.D{{Key: "$jsonSchema", Value: bson.D{{Key: "required", Value: bson.A{"email"}}}}}
	if err := db.CreateCollection(ctx, "users", docdb.CreateOptions{Validator: validator, ValidationLevel: docdb.ValidationStrict}); err != nil {
		t.Fatalf("create users: %v", err)
	}
	if _, err := db.InsertMany(ctx, "users", []interface{}{
		bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "ana@example.org"}},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	if err := db.CreateView(ctx, "latest_readings", "readings", bson.A{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "ts", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 10}},
	}); err != nil {
		t.Fatalf("create view: %v", err)
	}
}

// TestMongoRoundTrip backs up a database and restores it into an empty one
func TestMongoRoundTrip(t *testing.T) {
	SkipIfNoDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	server, err := NewMongoContainer(ctx)
	if err != nil {
		t.Fatalf("NewMongoContainer: %v", err)
	}
	defer CleanupContainer(t, ctx, server)

	source, err := server.Connect(ctx, "aqmon")
	if err != nil {
		t.Fatalf("connect source: %v\n%s", err, ContainerLogs(ctx, server))
	}
	defer source.Close(ctx) //nolint:errcheck
	seedSource(t, ctx, source)

	writer := archive.NewWriter(10)
	res, err := writer.Backup(ctx, source, t.TempDir(), true)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if len(res.Failed) > 0 || res.Collections["readings"] != 48 || len(res.Views) != 1 {
		t.Fatalf("backup result = %+v", res)
	}

	target, err := server.Connect(ctx, "aqmon_restored")
	if err != nil {
		t.Fatalf("connect target: %v", err)
	}
	defer target.Close(ctx) //nolint:errcheck

	var out bytes.Buffer
	opts := restore.DefaultOptions()
	opts.Yes = true
	opts.SnapshotDir = t.TempDir()
	opts.BatchSize = 16
	opts.Out = &out

	report, err := restore.NewExecutor(target, writer).Run(ctx, res.ArchivePath, opts)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, out.String())
	}
	if err := report.Err(); err != nil {
		t.Fatalf("report errors: %v\n%s", err, out.String())
	}
	if report.Verification == nil || !report.Verification.OK() {
		t.Fatalf("verification failed:\n%s", out.String())
	}
	if report.SnapshotPath == "" {
		t.Error("expected a safety snapshot of the empty target")
	}

	for name, want := range map[string]int64{"stations": 2, "readings": 48, "users": 1} {
		got, err := target.CountDocuments(ctx, name)
		if err != nil || got != want {
			t.Errorf("%s count = %d (%v), want %d", name, got, err, want)
		}
	}

	specs, err := target.ListCollectionSpecs(ctx)
	if err != nil {
		t.Fatalf("ListCollectionSpecs: %v", err)
	}
	byName := docdb.SpecsByName(specs)
	if ts := byName["readings"].TimeSeries; ts == nil || ts.TimeField != "ts" || ts.MetaField != "meta" {
		t.Errorf("readings time-series options = %+v", ts)
	}
	if v := byName["latest_readings"]; v.Kind != docdb.KindView || v.View == nil || v.View.ViewOn != "readings" {
		t.Errorf("latest_readings = %+v", v)
	}
	if len(byName["users"].Validator) == 0 {
		t.Error("users validator was not restored")
	}

	// Restoring again over the populated target only reports duplicates
	out.Reset()
	opts.ReplaceExisting = false
	opts.NoSnapshot = true
	report, err = restore.NewExecutor(target, writer).Run(ctx, res.ArchivePath, opts)
	if err != nil {
		t.Fatalf("second Run: %v\n%s", err, out.String())
	}
	if inserted, _, failed := report.Totals(); inserted != 0 || failed != 0 {
		t.Errorf("second run inserted=%d failed=%d, want 0/0", inserted, failed)
	}
}
