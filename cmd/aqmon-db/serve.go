// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/aqmon/internal/api"
	"github.com/tomtom215/aqmon/internal/app"
	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/metrics"
	"github.com/tomtom215/aqmon/internal/supervisor"
	"github.com/tomtom215/aqmon/internal/supervisor/services"
)

func newServeCommand(e *env, load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled backups and the status API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
					cancel()
				case <-ctx.Done():
				}
			}()

			return serve(ctx, e, cfg)
		},
	}
}

// buildTree wires the scheduler and the HTTP server into a supervisor tree
func buildTree(e *env, cfg *config.Config) (*supervisor.Tree, *app.Context, error) {
	if !cfg.Backup.Enabled && !cfg.HTTP.Enabled {
		return nil, nil, errors.New("nothing to serve: both BACKUP_ENABLED and HTTP_ENABLED are false")
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	appCtx := app.New(cfg)

	// Data layer
	if cfg.Backup.Enabled {
		connector := backup.ConnectorFunc(func(ctx context.Context) (docdb.Database, error) {
			return e.open(ctx, cfg)
		})
		sched, err := backup.NewScheduler(cfg.Scheduler(), connector, archive.NewWriter(cfg.Backup.BatchSize))
		if err != nil {
			return nil, nil, err
		}
		appCtx.SetScheduler(sched)
		tree.AddDataService(services.NewSchedulerService(sched))
		logging.Info().Str("dir", cfg.Backup.Dir).Msg("Backup scheduler service added")
	}

	// API layer
	if cfg.HTTP.Enabled {
		router := api.NewRouter(appCtx, api.RouterConfig{
			Version: version,
			RateLimit: api.RateLimitConfig{
				Requests: cfg.HTTP.RateLimitReqs,
				Window:   cfg.HTTP.RateLimitWindow,
			},
		})
		server := api.NewServer(cfg.HTTP.Addr(), router)
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.HTTP.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}
	return tree, appCtx, nil
}

func serve(ctx context.Context, e *env, cfg *config.Config) error {
	metrics.SetAppInfo(version, runtime.Version())
	logging.Info().
		Str("version", version).
		Str("database", cfg.Mongo.Database).
		Bool("backup_enabled", cfg.Backup.Enabled).
		Bool("http_enabled", cfg.HTTP.Enabled).
		Msg("Starting aqmon-db")

	tree, _, err := buildTree(e, cfg)
	if err != nil {
		return err
	}

	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			serveErr = err
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("component", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("aqmon-db stopped")
	return serveErr
}
