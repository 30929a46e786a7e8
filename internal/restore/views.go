// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
)

// errNoTimeSeriesOptions is reported for a bucket-backed view whose source has
// no archived time-series options while inference is disabled
var errNoTimeSeriesOptions = errors.New("no archived time-series options and inference is disabled")

// orderViews puts every view after the view it is defined on
func orderViews(views []archive.ViewDefinition) []archive.ViewDefinition {
	byName := make(map[string]archive.ViewDefinition, len(views))
	for _, v := range views {
		byName[v.Name()] = v
	}

	ordered := make([]archive.ViewDefinition, 0, len(views))
	placed := make(map[string]bool, len(views))
	var visit func(v archive.ViewDefinition, depth int)
	visit = func(v archive.ViewDefinition, depth int) {
		if placed[v.Name()] || depth > len(views) {
			return
		}
		if dep, ok := byName[v.ViewOn]; ok {
			visit(dep, depth+1)
		}
		if !placed[v.Name()] {
			placed[v.Name()] = true
			ordered = append(ordered, v)
		}
	}
	for _, v := range views {
		visit(v, 0)
	}
	return ordered
}

// restoreViews recreates the archived views. Each runs after every collection
// has been loaded. A view over a bucket namespace whose time-series
// collection is missing gets that collection created first.
func (e *Executor) restoreViews(ctx context.Context, contents *archive.Contents, opts Options) []ViewResult {
	if len(contents.Views) == 0 {
		return nil
	}

	names, err := e.db.ListCollectionNames(ctx)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("Failed to list collections before view restore")
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	results := make([]ViewResult, 0, len(contents.Views))
	for _, v := range orderViews(contents.Views) {
		res := ViewResult{Name: v.Name(), ViewOn: v.ViewOn}

		if docdb.IsBucket(v.ViewOn) {
			source := docdb.BucketSource(v.ViewOn)
			if !present[source] && !present[v.ViewOn] {
				if err := e.createBucketSource(ctx, source, contents.Manifest, opts); err != nil {
					res.Err = fmt.Errorf("create source %s: %w", source, err)
					results = append(results, res)
					continue
				}
				present[source] = true
				res.CreatedSource = source
			}
		}

		if err := e.db.DropCollection(ctx, res.Name); err != nil {
			res.Err = fmt.Errorf("drop existing: %w", err)
		} else if err := e.db.CreateView(ctx, res.Name, v.ViewOn, v.Pipeline); err != nil {
			res.Err = fmt.Errorf("create view: %w", err)
		}

		if res.Err != nil {
			logging.CtxWarn(ctx).Err(res.Err).Str("view", res.Name).Msg("Failed to restore view")
		} else {
			present[res.Name] = true
			logging.CtxInfo(ctx).Str("view", res.Name).Str("view_on", v.ViewOn).Msg("View restored")
		}
		results = append(results, res)
	}
	return results
}

// createBucketSource creates the public time-series collection behind a bucket
// namespace. Without archived options it uses the configured inference fields,
// and fails when inference is disabled.
func (e *Executor) createBucketSource(ctx context.Context, name string, manifest archive.Manifest, opts Options) error {
	ts, ok := manifest.TimeSeries(name)
	if !ok {
		if !opts.InferTimeSeries {
			return errNoTimeSeriesOptions
		}
		in := opts.Inference.withDefaults()
		ts = &docdb.TimeSeriesSpec{TimeField: in.TimeField, MetaField: in.MetaField, Granularity: in.Granularity}
	}
	logging.CtxInfo(ctx).Str("collection", name).Str("time_field", ts.TimeField).Msg("Creating time-series source for view")
	return e.db.CreateCollection(ctx, name, docdb.CreateOptions{TimeSeries: ts})
}
