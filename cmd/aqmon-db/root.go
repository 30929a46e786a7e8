// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/restore"
)

// Exit codes
const (
	exitOK       = 0
	exitFatal    = 1
	exitFailures = 2
)

// errSilent marks an error whose details were already printed
var errSilent = errors.New("failures reported above")

// exitError carries a non-default exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withFailures(err error) error {
	return &exitError{code: exitFailures, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFatal
}

// env holds the process dependencies of the commands
type env struct {
	loadConfig func(path string) (*config.Config, error)
	connect    func(ctx context.Context, cfg docdb.Config) (docdb.Database, error)
	confirmer  func() restore.Confirmer

	// Skip logging.Init, for tests that install their own logger
	keepLogger bool
}

func defaultEnv() *env {
	return &env{
		loadConfig: func(path string) (*config.Config, error) {
			if path != "" {
				return config.LoadFile(path)
			}
			return config.Load()
		},
		connect:   connectMongo,
		confirmer: func() restore.Confirmer { return restore.NewTerminalConfirmer() },
	}
}

// connectMongo avoids returning a typed nil inside the interface
func connectMongo(ctx context.Context, cfg docdb.Config) (docdb.Database, error) {
	db, err := docdb.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newRootCommand(e *env) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "aqmon-db",
		Short:         "Back up and restore the aqmon database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := e.loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if !e.keepLogger {
			logging.Init(cfg.Logging.ToLogging())
		}
		return cfg, nil
	}

	root.AddCommand(
		newBackupCommand(e, load),
		newRestoreCommand(e, load),
		newServeCommand(e, load),
	)
	return root
}

// open connects to the configured database
func (e *env) open(ctx context.Context, cfg *config.Config) (docdb.Database, error) {
	db, err := e.connect(ctx, cfg.DocDB())
	if err != nil {
		return nil, fmt.Errorf("database %s: %w", cfg.Mongo.Database, err)
	}
	return db, nil
}

func closeDB(ctx context.Context, db docdb.Database) {
	if err := db.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
