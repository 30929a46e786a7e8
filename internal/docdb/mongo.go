// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package docdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds connection settings for the document database
type Config struct {
	// MongoDB connection string
	URI string

	// Database to back up or restore into
	Database string

	// Timeout for connection establishment and server selection
	ConnectTimeout time.Duration
}

// Mongo implements Database on top of the official MongoDB driver
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client, verifies connectivity and returns a handle on cfg.Database
func Connect(ctx context.Context, cfg Config) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("database URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	opts := options.Client().ApplyURI(cfg.URI).SetAppName("aqmon-db")
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx) //nolint:errcheck // Best effort cleanup on error
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

// Name returns the database name
func (m *Mongo) Name() string {
	return m.db.Name()
}

// ListCollectionNames returns every collection name reported by the server
func (m *Mongo) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// specOptions mirrors the options document returned by listCollections
type specOptions struct {
	TimeSeries       *TimeSeriesSpec `bson:"timeseries,omitempty"`
	ViewOn           string          `bson:"viewOn,omitempty"`
	Pipeline         bson.A          `bson:"pipeline,omitempty"`
	Validator        bson.D          `bson:"validator,omitempty"`
	ValidationLevel  string          `bson:"validationLevel,omitempty"`
	ValidationAction string          `bson:"validationAction,omitempty"`
}

// ListCollectionSpecs returns every collection with its creation options
func (m *Mongo) ListCollectionSpecs(ctx context.Context) ([]CollectionSpec, error) {
	raw, err := m.db.ListCollectionSpecifications(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collection specifications: %w", err)
	}

	specs := make([]CollectionSpec, 0, len(raw))
	for _, r := range raw {
		spec, err := parseSpecification(r)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseSpecification(r *mongo.CollectionSpecification) (CollectionSpec, error) {
	spec := CollectionSpec{Name: r.Name, Kind: CollectionKind(r.Type)}
	if spec.Kind == "" {
		spec.Kind = KindRegular
	}
	if len(r.Options) == 0 {
		return spec, nil
	}

	var opts specOptions
	if err := bson.Unmarshal(r.Options, &opts); err != nil {
		return spec, fmt.Errorf("failed to decode options of %s: %w", r.Name, err)
	}

	spec.TimeSeries = opts.TimeSeries
	spec.Validator = opts.Validator
	spec.ValidationLevel = opts.ValidationLevel
	spec.ValidationAction = opts.ValidationAction
	if spec.Kind == KindView || opts.ViewOn != "" {
		spec.Kind = KindView
		spec.View = &ViewSpec{ViewOn: opts.ViewOn, Pipeline: opts.Pipeline}
	}
	return spec, nil
}

// CreateCollection creates a regular or time-series collection
func (m *Mongo) CreateCollection(ctx context.Context, name string, opts CreateOptions) error {
	o := options.CreateCollection()
	if ts := opts.TimeSeries; ts != nil {
		tso := options.TimeSeries().SetTimeField(ts.TimeField)
		if ts.MetaField != "" {
			tso.SetMetaField(ts.MetaField)
		}
		if ts.Granularity != "" {
			tso.SetGranularity(ts.Granularity)
		}
		o.SetTimeSeriesOptions(tso)
	}
	if len(opts.Validator) > 0 {
		o.SetValidator(opts.Validator)
		if opts.ValidationLevel != "" {
			o.SetValidationLevel(opts.ValidationLevel)
		}
		if opts.ValidationAction != "" {
			o.SetValidationAction(opts.ValidationAction)
		}
	}

	if err := m.db.CreateCollection(ctx, name, o); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// CreateView creates a view over viewOn using pipeline
func (m *Mongo) CreateView(ctx context.Context, name, viewOn string, pipeline bson.A) error {
	if pipeline == nil {
		pipeline = bson.A{}
	}
	if err := m.db.CreateView(ctx, name, viewOn, pipeline); err != nil {
		return fmt.Errorf("failed to create view %s on %s: %w", name, viewOn, err)
	}
	return nil
}

// DropCollection drops a collection or view
func (m *Mongo) DropCollection(ctx context.Context, name string) error {
	if err := m.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	return nil
}

// SetValidator replaces the validator and validation settings via collMod
func (m *Mongo) SetValidator(ctx context.Context, name string, validator bson.D, level, action string) error {
	if validator == nil {
		validator = bson.D{}
	}
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if level != "" {
		cmd = append(cmd, bson.E{Key: "validationLevel", Value: level})
	}
	if action != "" {
		cmd = append(cmd, bson.E{Key: "validationAction", Value: action})
	}

	if err := m.db.RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("failed to update validator of %s: %w", name, err)
	}
	return nil
}

// Stream iterates a collection with a bounded batch size.
// The raw document passed to fn is only valid until fn returns.
func (m *Mongo) Stream(ctx context.Context, name string, batchSize int32, fn func(bson.Raw) error) error {
	opts := options.Find()
	if batchSize > 0 {
		opts.SetBatchSize(batchSize)
	}

	cur, err := m.db.Collection(name).Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("failed to open cursor on %s: %w", name, err)
	}
	defer cur.Close(ctx) //nolint:errcheck // Best effort cleanup

	for cur.Next(ctx) {
		if err := fn(cur.Current); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("cursor on %s failed: %w", name, err)
	}
	return nil
}

// CountDocuments returns the number of documents in a collection
func (m *Mongo) CountDocuments(ctx context.Context, name string) (int64, error) {
	n, err := m.db.Collection(name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

// FindByIDs returns the documents whose _id is in ids
func (m *Mongo) FindByIDs(ctx context.Context, name string, ids []interface{}) ([]bson.D, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	cur, err := m.db.Collection(name).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to look up documents in %s: %w", name, err)
	}

	var docs []bson.D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read documents from %s: %w", name, err)
	}
	return docs, nil
}

// InsertMany performs an unordered bulk insert and classifies per-document failures
func (m *Mongo) InsertMany(ctx context.Context, name string, docs []interface{}) (BatchResult, error) {
	if len(docs) == 0 {
		return BatchResult{}, nil
	}

	_, err := m.db.Collection(name).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return BatchResult{InsertedCount: len(docs)}, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return BatchResult{}, fmt.Errorf("bulk insert into %s failed: %w", name, err)
	}

	failures := make([]WriteFailure, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		failures = append(failures, WriteFailure{Index: we.Index, Code: we.Code, Message: we.Message})
	}
	return ClassifyFailures(len(docs), failures), nil
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
