// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// CollectionOptions are the creation options recorded for one collection
type CollectionOptions struct {
	TimeSeries *docdb.TimeSeriesSpec `json:"timeseries,omitempty"`

	// Validator document as relaxed extended JSON
	Validator json.RawMessage `json:"validator,omitempty"`

	ValidationLevel  string `json:"validationLevel,omitempty"`
	ValidationAction string `json:"validationAction,omitempty"`
}

// Manifest maps collection names to creation options
type Manifest map[string]CollectionOptions

// ManifestFromSpecs builds a manifest from the collections that carry non-default options.
// Views and internal namespaces are not included.
func ManifestFromSpecs(specs []docdb.CollectionSpec) (Manifest, error) {
	m := make(Manifest)
	for _, s := range specs {
		if s.Kind == docdb.KindView || docdb.IsInternal(s.Name) || !s.HasNonDefaultOptions() {
			continue
		}

		opts := CollectionOptions{TimeSeries: s.TimeSeries}
		if len(s.Validator) > 0 {
			raw, err := bson.MarshalExtJSON(s.Validator, false, false)
			if err != nil {
				return nil, fmt.Errorf("failed to encode validator of %s: %w", s.Name, err)
			}
			opts.Validator = raw
			opts.ValidationLevel = s.ValidationLevel
			opts.ValidationAction = s.ValidationAction
		}
		m[s.Name] = opts
	}
	return m, nil
}

// Names returns the manifest collection names sorted
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TimeSeries returns the time-series options recorded for a collection
func (m Manifest) TimeSeries(name string) (*docdb.TimeSeriesSpec, bool) {
	opts, ok := m[name]
	if !ok || opts.TimeSeries == nil || opts.TimeSeries.TimeField == "" {
		return nil, false
	}
	ts := *opts.TimeSeries
	return &ts, true
}

// Validator decodes the validator recorded for a collection; nil when none
func (m Manifest) Validator(name string) (bson.D, error) {
	opts, ok := m[name]
	if !ok || len(opts.Validator) == 0 {
		return nil, nil
	}
	var v bson.D
	if err := bson.UnmarshalExtJSON(opts.Validator, false, &v); err != nil {
		return nil, fmt.Errorf("failed to decode validator of %s: %w", name, err)
	}
	return v, nil
}

// WriteManifest writes the manifest into dir; pretty indents the JSON
func WriteManifest(dir string, m Manifest, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(m, "", "  ")
	} else {
		data, err = json.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return &Error{Op: "write manifest", Path: path, Err: err}
	}
	return nil
}

// ReadManifest reads the manifest from dir. A missing manifest yields an empty one.
func ReadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is inside the extraction directory
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return nil, &Error{Op: "read manifest", Path: path, Err: err}
	}

	m := make(Manifest)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &Error{Op: "parse manifest", Path: path, Err: err}
	}
	return m, nil
}
