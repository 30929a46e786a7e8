// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// sampleDocs builds n documents; the first withTime carry a date, the first withMeta carry meta
func sampleDocs(n, withTime, withMeta int, timeValue func(i int) interface{}) []bson.D {
	docs := make([]bson.D, 0, n)
	for i := 0; i < n; i++ {
		doc := bson.D{{Key: "_id", Value: i}}
		if i < withTime {
			doc = append(doc, bson.E{Key: "ts", Value: timeValue(i)})
		}
		if i < withMeta {
			doc = append(doc, bson.E{Key: "meta", Value: bson.D{{Key: "station", Value: "berlin"}}})
		}
		docs = append(docs, doc)
	}
	return docs
}

func bsonDate(i int) interface{} {
	return primitive.NewDateTimeFromTime(baseTime.Add(time.Duration(i) * time.Minute))
}

func isoString(i int) interface{} {
	return baseTime.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
}

func TestInferTimeSeries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		docs     []bson.D
		wantKind string // "tagged", "time-only" or "regular"
	}{
		{"all tagged", sampleDocs(20, 20, 20, bsonDate), "tagged"},
		{"tagged at threshold", sampleDocs(10, 8, 8, bsonDate), "tagged"},
		{"meta below threshold, time high", sampleDocs(20, 19, 10, bsonDate), "time-only"},
		{"time-only", sampleDocs(20, 20, 0, bsonDate), "time-only"},
		{"time below strict threshold", sampleDocs(20, 18, 0, bsonDate), "regular"},
		{"tagged but time below tagged threshold", sampleDocs(10, 7, 10, bsonDate), "regular"},
		{"rfc3339 strings count", sampleDocs(10, 10, 10, isoString), "tagged"},
		{"unparseable strings excluded", sampleDocs(10, 10, 10, func(int) interface{} { return "yesterday" }), "regular"},
		{"no timestamps", sampleDocs(10, 0, 10, bsonDate), "regular"},
		{"empty sample", nil, "regular"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec := InferTimeSeries(tt.docs, DefaultInference())

			got := "regular"
			if spec != nil {
				got = "time-only"
				if spec.MetaField != "" {
					got = "tagged"
				}
				if spec.TimeField != "ts" || spec.Granularity != "hours" {
					t.Errorf("unexpected spec %+v", spec)
				}
			}
			if got != tt.wantKind {
				t.Errorf("InferTimeSeries = %s, want %s", got, tt.wantKind)
			}
		})
	}
}

func TestInferTimeSeriesCustomFields(t *testing.T) {
	t.Parallel()
	docs := []bson.D{
		{{Key: "at", Value: bsonDate(0)}, {Key: "sensor", Value: "a"}},
		{{Key: "at", Value: bsonDate(1)}, {Key: "sensor", Value: "b"}},
	}
	in := Inference{TimeField: "at", MetaField: "sensor", Granularity: "minutes"}

	spec := InferTimeSeries(docs, in)
	if spec == nil || spec.TimeField != "at" || spec.MetaField != "sensor" || spec.Granularity != "minutes" {
		t.Errorf("InferTimeSeries = %+v", spec)
	}
}

func TestCoerceTimeField(t *testing.T) {
	t.Parallel()

	doc := bson.D{{Key: "_id", Value: 1}, {Key: "ts", Value: "2026-03-01T06:00:00Z"}}
	out := coerceTimeField(doc, "ts")
	dt, ok := out[1].Value.(primitive.DateTime)
	if !ok || !dt.Time().Equal(baseTime) {
		t.Errorf("ts = %#v, want BSON date %s", out[1].Value, baseTime)
	}
	if _, ok := doc[1].Value.(string); !ok {
		t.Error("coerceTimeField must not modify its input")
	}

	bad := bson.D{{Key: "ts", Value: "not a time"}}
	if got := coerceTimeField(bad, "ts"); got[0].Value != "not a time" {
		t.Error("unparseable timestamps should be left as is")
	}
}
