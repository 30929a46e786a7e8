// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"errors"
	"io"
)

// ConfirmPhrase must be typed to proceed with a destructive restore
const ConfirmPhrase = "RESTORE"

// Default restore settings
const (
	DefaultBatchSize        = 1000
	DefaultVerifySampleSize = 100
	DefaultSnapshotDir      = "./backups/pre_restore"
)

var (
	// ErrAborted is returned when the operator declines or cannot confirm
	ErrAborted = errors.New("restore aborted")

	// ErrSnapshotFailed is returned when the safety snapshot fails; nothing was changed
	ErrSnapshotFailed = errors.New("safety snapshot failed")
)

// Options configures one restore run
type Options struct {
	// Print the plan and stop before any change
	DryRun bool

	// Skip the confirmation gate
	Yes bool

	// Disable validators during the load and reapply them afterwards
	Force bool

	// Drop and recreate every restore target instead of only missing ones
	ReplaceExisting bool

	BatchSize        int
	VerifySampleSize int

	// Skip the safety snapshot
	NoSnapshot bool

	// Output root of the safety snapshot
	SnapshotDir string

	// Infer time-series options for collections missing from the manifest
	InferTimeSeries bool
	Inference       Inference

	// Extraction directory; a temporary directory is used and removed when empty
	WorkDir string

	// Asks the operator for the confirmation phrase
	Confirm Confirmer

	// Receives the plan, result and verification tables
	Out io.Writer
}

// DefaultOptions returns the default restore options
func DefaultOptions() Options {
	return Options{
		BatchSize:        DefaultBatchSize,
		VerifySampleSize: DefaultVerifySampleSize,
		SnapshotDir:      DefaultSnapshotDir,
		InferTimeSeries:  true,
		Inference:        DefaultInference(),
		Out:              io.Discard,
	}
}

// withDefaults fills zero numeric settings; booleans are taken as given
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.VerifySampleSize <= 0 {
		o.VerifySampleSize = d.VerifySampleSize
	}
	if o.SnapshotDir == "" {
		o.SnapshotDir = d.SnapshotDir
	}
	o.Inference = o.Inference.withDefaults()
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}
