// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package docdbtest provides an in-memory docdb.Database for unit tests.
//
// The fake mirrors the server behaviours the backup engine depends on:
// unique _id on regular collections (duplicate-key code 11000), no _id
// uniqueness on time-series collections, rejection of time-series documents
// without a date in the time field, $jsonSchema "required" validation,
// views and the system.buckets / system.views namespaces reported by
// listCollections.
package docdbtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// Server error codes reproduced by the fake
const (
	CodeBadValue          = 2
	CodeNamespaceExists   = 48
	CodeValidationFailure = 121
	CodeCommandNotAllowed = 166
)

type collection struct {
	spec docdb.CollectionSpec
	docs []bson.D
	ids  map[string]int
}

// Database is an in-memory document database
type Database struct {
	mu    sync.Mutex
	name  string
	colls map[string]*collection

	// Error injection; set before use. ValidatorErr only fails calls that
	// install a non-empty validator.
	ListErr      error
	StreamErr    map[string]error
	CountErr     map[string]error
	InsertErr    map[string]error
	CreateErr    map[string]error
	ValidatorErr map[string]error

	closed bool
}

// New creates an empty database
func New(name string) *Database {
	return &Database{
		name:         name,
		colls:        make(map[string]*collection),
		StreamErr:    make(map[string]error),
		CountErr:     make(map[string]error),
		InsertErr:    make(map[string]error),
		CreateErr:    make(map[string]error),
		ValidatorErr: make(map[string]error),
	}
}

// Name returns the database name
func (d *Database) Name() string {
	return d.name
}

// Closed reports whether Close was called
func (d *Database) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// serverNames returns every namespace the server would list, including internal ones
func (d *Database) serverNames() []string {
	names := make([]string, 0, len(d.colls)+1)
	hasView := false
	for name, c := range d.colls {
		names = append(names, name)
		switch c.spec.Kind {
		case docdb.KindTimeSeries:
			names = append(names, docdb.BucketsPrefix+name)
		case docdb.KindView:
			hasView = true
		}
	}
	if hasView {
		names = append(names, docdb.ViewsName)
	}
	sort.Strings(names)
	return names
}

// ListCollectionNames returns every name including bucket and views namespaces
func (d *Database) ListCollectionNames(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ListErr != nil {
		return nil, d.ListErr
	}
	return d.serverNames(), nil
}

// ListCollectionSpecs returns specs for every listed name
func (d *Database) ListCollectionSpecs(_ context.Context) ([]docdb.CollectionSpec, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ListErr != nil {
		return nil, d.ListErr
	}

	names := d.serverNames()
	specs := make([]docdb.CollectionSpec, 0, len(names))
	for _, name := range names {
		if c, ok := d.colls[name]; ok {
			specs = append(specs, cloneSpec(c.spec))
			continue
		}
		specs = append(specs, docdb.CollectionSpec{Name: name, Kind: docdb.KindRegular})
	}
	return specs, nil
}

// CollectionNames returns the public (non-internal) collection and view names
func (d *Database) CollectionNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.colls))
	for name := range d.colls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the spec of a collection
func (d *Database) Spec(name string) (docdb.CollectionSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.colls[name]
	if !ok {
		return docdb.CollectionSpec{}, false
	}
	return cloneSpec(c.spec), true
}

// Docs returns a copy of the documents stored in a collection
func (d *Database) Docs(name string) []bson.D {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.colls[name]
	if !ok {
		return nil
	}
	out := make([]bson.D, len(c.docs))
	copy(out, c.docs)
	return out
}

// CreateCollection creates a regular or time-series collection
func (d *Database) CreateCollection(_ context.Context, name string, opts docdb.CreateOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.CreateErr[name]; err != nil {
		return err
	}
	if _, ok := d.colls[name]; ok {
		return serverError(CodeNamespaceExists, "collection already exists: "+name)
	}

	spec := docdb.CollectionSpec{
		Name:             name,
		Kind:             docdb.KindRegular,
		Validator:        opts.Validator,
		ValidationLevel:  opts.ValidationLevel,
		ValidationAction: opts.ValidationAction,
	}
	if opts.TimeSeries != nil {
		if opts.TimeSeries.TimeField == "" {
			return serverError(CodeBadValue, "timeseries requires timeField")
		}
		ts := *opts.TimeSeries
		if ts.Granularity == "" {
			ts.Granularity = "seconds"
		}
		spec.Kind = docdb.KindTimeSeries
		spec.TimeSeries = &ts
	}
	if len(spec.Validator) > 0 && spec.ValidationLevel == "" {
		spec.ValidationLevel = docdb.ValidationStrict
	}

	d.colls[name] = &collection{spec: spec, ids: make(map[string]int)}
	return nil
}

// CreateView creates a view
func (d *Database) CreateView(_ context.Context, name, viewOn string, pipeline bson.A) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.CreateErr[name]; err != nil {
		return err
	}
	if _, ok := d.colls[name]; ok {
		return serverError(CodeNamespaceExists, "namespace already exists: "+name)
	}
	d.colls[name] = &collection{spec: docdb.CollectionSpec{
		Name: name,
		Kind: docdb.KindView,
		View: &docdb.ViewSpec{ViewOn: viewOn, Pipeline: pipeline},
	}}
	return nil
}

// DropCollection drops a collection; dropping a missing one succeeds
func (d *Database) DropCollection(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.colls, docdb.BucketSource(name))
	return nil
}

// SetValidator replaces the validator of a collection
func (d *Database) SetValidator(_ context.Context, name string, validator bson.D, level, action string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ValidatorErr[name]; err != nil && len(validator) > 0 {
		return err
	}
	c, ok := d.colls[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, docdb.ErrCollectionNotFound)
	}
	if c.spec.Kind == docdb.KindView {
		return serverError(CodeCommandNotAllowed, "cannot set a validator on a view")
	}
	c.spec.Validator = validator
	if level != "" {
		c.spec.ValidationLevel = level
	}
	if action != "" {
		c.spec.ValidationAction = action
	}
	return nil
}

// Stream iterates documents in insertion order
func (d *Database) Stream(ctx context.Context, name string, _ int32, fn func(bson.Raw) error) error {
	d.mu.Lock()
	if err := d.StreamErr[name]; err != nil {
		d.mu.Unlock()
		return err
	}
	c, ok := d.colls[name]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", name, docdb.ErrCollectionNotFound)
	}
	docs := make([]bson.D, len(c.docs))
	copy(docs, c.docs)
	d.mu.Unlock()

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

// CountDocuments counts documents; views are not countable
func (d *Database) CountDocuments(_ context.Context, name string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.CountErr[name]; err != nil {
		return 0, err
	}
	c, ok := d.colls[name]
	if !ok {
		return 0, nil
	}
	if c.spec.Kind == docdb.KindView {
		return 0, fmt.Errorf("%s: %w", name, docdb.ErrNotCountable)
	}
	return int64(len(c.docs)), nil
}

// FindByIDs returns the documents whose _id is in ids, in ids order
func (d *Database) FindByIDs(_ context.Context, name string, ids []interface{}) ([]bson.D, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.colls[name]
	if !ok {
		return nil, nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		key, err := idKey(id)
		if err != nil {
			return nil, err
		}
		want[key] = true
	}

	var out []bson.D
	for _, doc := range c.docs {
		id, ok := lookup(doc, "_id")
		if !ok {
			continue
		}
		key, err := idKey(id)
		if err != nil {
			return nil, err
		}
		if want[key] {
			out = append(out, doc)
		}
	}
	return out, nil
}

// InsertMany inserts documents unordered, reporting per-document failures
func (d *Database) InsertMany(_ context.Context, name string, docs []interface{}) (docdb.BatchResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.InsertErr[name]; err != nil {
		return docdb.BatchResult{}, err
	}

	c, ok := d.colls[name]
	if !ok {
		c = &collection{spec: docdb.CollectionSpec{Name: name, Kind: docdb.KindRegular}, ids: make(map[string]int)}
		d.colls[name] = c
	}
	if c.spec.Kind == docdb.KindView {
		return docdb.BatchResult{}, serverError(CodeCommandNotAllowed, "cannot insert into a view")
	}

	var failures []docdb.WriteFailure
	for i, v := range docs {
		doc, err := toDocument(v)
		if err != nil {
			failures = append(failures, docdb.WriteFailure{Index: i, Code: CodeBadValue, Message: err.Error()})
			continue
		}
		if code, msg := c.insert(doc); code != 0 {
			failures = append(failures, docdb.WriteFailure{Index: i, Code: code, Message: msg})
		}
	}
	return docdb.ClassifyFailures(len(docs), failures), nil
}

func (c *collection) insert(doc bson.D) (int, string) {
	id, ok := lookup(doc, "_id")
	if !ok {
		id = primitive.NewObjectID()
		doc = append(bson.D{{Key: "_id", Value: id}}, doc...)
	}
	key, err := idKey(id)
	if err != nil {
		return CodeBadValue, err.Error()
	}

	if ts := c.spec.TimeSeries; ts != nil {
		v, ok := lookup(doc, ts.TimeField)
		if _, isDate := v.(primitive.DateTime); !ok || !isDate {
			return CodeBadValue, fmt.Sprintf("'%s' must be present and contain a valid BSON UTC datetime value", ts.TimeField)
		}
	} else if _, dup := c.ids[key]; dup {
		return docdb.CodeDuplicateKey, "E11000 duplicate key error collection: " + c.spec.Name + " index: _id_"
	}

	if c.spec.ValidationLevel != docdb.ValidationOff {
		if missing := missingRequired(c.spec.Validator, doc); missing != "" {
			return CodeValidationFailure, "Document failed validation: missing " + missing
		}
	}

	c.ids[key] = len(c.docs)
	c.docs = append(c.docs, doc)
	return 0, ""
}

// Close marks the database closed
func (d *Database) Close(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// ServerError mimics a server command error carrying a numeric code
type ServerError struct {
	Code    int
	Message string
}

func (e ServerError) Error() string {
	return fmt.Sprintf("(%d) %s", e.Code, e.Message)
}

func serverError(code int, msg string) error {
	return ServerError{Code: code, Message: msg}
}

// IsServerError reports whether err carries the given server code
func IsServerError(err error, code int) bool {
	var se ServerError
	return errors.As(err, &se) && se.Code == code
}

// missingRequired evaluates the "required" list of a $jsonSchema validator
func missingRequired(validator bson.D, doc bson.D) string {
	schema, ok := lookup(validator, "$jsonSchema")
	if !ok {
		return ""
	}
	sd, ok := schema.(bson.D)
	if !ok {
		return ""
	}
	req, ok := lookup(sd, "required")
	if !ok {
		return ""
	}
	fields, ok := req.(bson.A)
	if !ok {
		return ""
	}
	for _, f := range fields {
		name, _ := f.(string)
		if _, present := lookup(doc, name); !present {
			return name
		}
	}
	return ""
}

func lookup(doc bson.D, key string) (interface{}, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func idKey(id interface{}) (string, error) {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: id}}, true, false)
	if err != nil {
		return "", fmt.Errorf("unsupported _id: %w", err)
	}
	return string(b), nil
}

func toDocument(v interface{}) (bson.D, error) {
	if doc, ok := v.(bson.D); ok {
		return doc, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func cloneSpec(s docdb.CollectionSpec) docdb.CollectionSpec {
	if s.TimeSeries != nil {
		ts := *s.TimeSeries
		s.TimeSeries = &ts
	}
	if s.View != nil {
		v := *s.View
		s.View = &v
	}
	return s
}
