// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// Inference configures time-series detection from sampled documents
type Inference struct {
	// Leading documents read from the collection file
	SampleSize int

	// Fraction of samples that must carry both a timestamp and meta
	TaggedThreshold float64

	// Fraction of samples that must carry a timestamp when meta is rare
	TimeOnlyThreshold float64

	TimeField   string
	MetaField   string
	Granularity string
}

// DefaultInference returns the default detection settings
func DefaultInference() Inference {
	return Inference{
		SampleSize:        200,
		TaggedThreshold:   0.8,
		TimeOnlyThreshold: 0.95,
		TimeField:         "ts",
		MetaField:         "meta",
		Granularity:       "hours",
	}
}

func (in Inference) withDefaults() Inference {
	d := DefaultInference()
	if in.SampleSize <= 0 {
		in.SampleSize = d.SampleSize
	}
	if in.TaggedThreshold <= 0 {
		in.TaggedThreshold = d.TaggedThreshold
	}
	if in.TimeOnlyThreshold <= 0 {
		in.TimeOnlyThreshold = d.TimeOnlyThreshold
	}
	if in.TimeField == "" {
		in.TimeField = d.TimeField
	}
	if in.MetaField == "" {
		in.MetaField = d.MetaField
	}
	if in.Granularity == "" {
		in.Granularity = d.Granularity
	}
	return in
}

// InferTimeSeries decides from a document sample whether a collection is a
// time-series collection. It returns nil for a regular collection.
//
// A document counts toward the timestamp ratio only when its time field is a
// BSON date or an RFC 3339 string; unparseable values are left out.
func InferTimeSeries(docs []bson.D, in Inference) *docdb.TimeSeriesSpec {
	in = in.withDefaults()
	if len(docs) == 0 {
		return nil
	}

	var withTime, withMeta int
	for _, doc := range docs {
		if v, ok := field(doc, in.TimeField); ok {
			if _, ok := parseTimestamp(v); ok {
				withTime++
			}
		}
		if v, ok := field(doc, in.MetaField); ok && v != nil {
			withMeta++
		}
	}

	n := float64(len(docs))
	timeRatio := float64(withTime) / n
	metaRatio := float64(withMeta) / n

	switch {
	case timeRatio >= in.TaggedThreshold && metaRatio >= in.TaggedThreshold:
		return &docdb.TimeSeriesSpec{TimeField: in.TimeField, MetaField: in.MetaField, Granularity: in.Granularity}
	case timeRatio >= in.TimeOnlyThreshold:
		return &docdb.TimeSeriesSpec{TimeField: in.TimeField, Granularity: in.Granularity}
	default:
		return nil
	}
}

// parseTimestamp accepts a BSON date or an RFC 3339 string
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time(), true
	case time.Time:
		return t, true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	default:
		return time.Time{}, false
	}
}

// coerceTimeField converts an RFC 3339 string in the time field to a BSON
// date so the document is accepted by a time-series collection.
func coerceTimeField(doc bson.D, timeField string) bson.D {
	for i, e := range doc {
		if e.Key != timeField {
			continue
		}
		s, ok := e.Value.(string)
		if !ok {
			return doc
		}
		ts, ok := parseTimestamp(s)
		if !ok {
			return doc
		}
		out := make(bson.D, len(doc))
		copy(out, doc)
		out[i].Value = primitive.NewDateTimeFromTime(ts)
		return out
	}
	return doc
}

func field(doc bson.D, key string) (interface{}, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
