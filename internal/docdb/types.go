// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package docdb

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// CollectionKind is the storage kind of a collection
type CollectionKind string

const (
	// KindRegular is an ordinary document collection
	KindRegular CollectionKind = "collection"

	// KindTimeSeries is an append-oriented time-series collection
	KindTimeSeries CollectionKind = "timeseries"

	// KindView is a computed view over another collection
	KindView CollectionKind = "view"
)

// Validation levels understood by collMod
const (
	ValidationOff    = "off"
	ValidationStrict = "strict"
)

// Duplicate-key server error codes
const (
	CodeDuplicateKey       = 11000
	CodeDuplicateKeyLegacy = 11001
	CodeDuplicateKeyUpsert = 12582
)

// Name prefixes of internal collections
const (
	SystemPrefix  = "system."
	BucketsPrefix = "system.buckets."
	ViewsName     = "system.views"
)

// ErrCollectionNotFound is returned when an operation targets a missing collection
var ErrCollectionNotFound = errors.New("collection not found")

// ErrNotCountable is returned when counting an object that holds no documents
var ErrNotCountable = errors.New("collection is not countable")

// TimeSeriesSpec holds the options required to create a time-series collection
type TimeSeriesSpec struct {
	TimeField   string `json:"timeField" bson:"timeField"`
	MetaField   string `json:"metaField,omitempty" bson:"metaField,omitempty"`
	Granularity string `json:"granularity,omitempty" bson:"granularity,omitempty"`
}

// ViewSpec holds the definition of a view
type ViewSpec struct {
	ViewOn   string `json:"viewOn"`
	Pipeline bson.A `json:"pipeline"`
}

// CollectionSpec describes a collection together with its creation options
type CollectionSpec struct {
	Name string
	Kind CollectionKind

	// Set when Kind is KindTimeSeries
	TimeSeries *TimeSeriesSpec

	// Set when Kind is KindView
	View *ViewSpec

	// Validator document, nil when the collection has none
	Validator bson.D

	ValidationLevel  string
	ValidationAction string
}

// HasNonDefaultOptions reports whether the collection needs options beyond a plain create
func (s CollectionSpec) HasNonDefaultOptions() bool {
	return s.TimeSeries != nil || len(s.Validator) > 0
}

// CreateOptions configures collection creation
type CreateOptions struct {
	TimeSeries       *TimeSeriesSpec
	Validator        bson.D
	ValidationLevel  string
	ValidationAction string
}

// WriteFailure describes one document that failed to insert
type WriteFailure struct {
	Index   int
	Code    int
	Message string
}

// IsDuplicateKey reports whether the failure is a duplicate-key violation
func (f WriteFailure) IsDuplicateKey() bool {
	return IsDuplicateKeyCode(f.Code)
}

// BatchResult is the outcome of one unordered bulk insert
type BatchResult struct {
	InsertedCount  int
	DuplicateCount int
	OtherErrors    []WriteFailure
}

// ClassifyFailures splits the write failures of a batch into duplicate-key and other failures
func ClassifyFailures(batchSize int, failures []WriteFailure) BatchResult {
	res := BatchResult{InsertedCount: ApproximateInserted(batchSize, len(failures))}
	for _, f := range failures {
		if f.IsDuplicateKey() {
			res.DuplicateCount++
			continue
		}
		res.OtherErrors = append(res.OtherErrors, f)
	}
	return res
}

// Database is the document database handle consumed by the backup engine
type Database interface {
	// Name returns the database name
	Name() string

	// ListCollectionNames returns every collection name reported by the server
	ListCollectionNames(ctx context.Context) ([]string, error)

	// ListCollectionSpecs returns every collection with its creation options
	ListCollectionSpecs(ctx context.Context) ([]CollectionSpec, error)

	// CreateCollection creates a regular or time-series collection
	CreateCollection(ctx context.Context, name string, opts CreateOptions) error

	// CreateView creates a view over viewOn using pipeline
	CreateView(ctx context.Context, name, viewOn string, pipeline bson.A) error

	// DropCollection drops a collection or view; dropping a missing one is not an error
	DropCollection(ctx context.Context, name string) error

	// SetValidator replaces the validator and validation settings of a collection
	SetValidator(ctx context.Context, name string, validator bson.D, level, action string) error

	// Stream iterates the collection in batches of batchSize, calling fn per document
	Stream(ctx context.Context, name string, batchSize int32, fn func(bson.Raw) error) error

	// CountDocuments returns the number of documents in the collection
	CountDocuments(ctx context.Context, name string) (int64, error)

	// FindByIDs returns the documents whose _id is in ids
	FindByIDs(ctx context.Context, name string, ids []interface{}) ([]bson.D, error)

	// InsertMany performs an unordered bulk insert
	InsertMany(ctx context.Context, name string, docs []interface{}) (BatchResult, error)

	// Close releases the connection
	Close(ctx context.Context) error
}

// IsDuplicateKeyCode reports whether code is one of the duplicate-key codes
func IsDuplicateKeyCode(code int) bool {
	return code == CodeDuplicateKey || code == CodeDuplicateKeyLegacy || code == CodeDuplicateKeyUpsert
}

// IsInternal reports whether name is a server-internal collection
func IsInternal(name string) bool {
	return strings.HasPrefix(name, SystemPrefix)
}

// IsBucket reports whether name is the internal bucket store of a time-series collection
func IsBucket(name string) bool {
	return strings.HasPrefix(name, BucketsPrefix)
}

// BucketSource returns the public time-series collection name for a bucket namespace
func BucketSource(name string) string {
	return strings.TrimPrefix(name, BucketsPrefix)
}

// ApproximateInserted estimates inserted documents after a partial bulk failure
func ApproximateInserted(batchSize, failures int) int {
	if n := batchSize - failures; n > 0 {
		return n
	}
	return 0
}

// SpecsByName indexes specs by collection name
func SpecsByName(specs []CollectionSpec) map[string]CollectionSpec {
	out := make(map[string]CollectionSpec, len(specs))
	for _, s := range specs {
		out[s.Name] = s
	}
	return out
}
