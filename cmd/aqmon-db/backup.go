// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/docdb"
)

func newBackupCommand(e *env, load func() (*config.Config, error)) *cobra.Command {
	var (
		outDir string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write one backup archive and apply retention",
		Long: `Dump every collection and view of the configured database into
<out-dir>/backup_data/backup_YYYYMMDD_HHMMSS.tar, then delete archives older
than the retention period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			sc := cfg.Scheduler()
			if cmd.Flags().Changed("out-dir") {
				sc.Dir = outDir
			}
			if cmd.Flags().Changed("pretty") {
				sc.Pretty = pretty
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := runBackup(ctx, e, cfg, sc)
			if err != nil {
				return err
			}
			printBackup(cmd, res)
			if len(res.FailedCollections) > 0 {
				return withFailures(fmt.Errorf("%d collections could not be dumped: %s",
					len(res.FailedCollections), strings.Join(res.FailedCollections, ", ")))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output root (default from BACKUP_DIR)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the collections manifest")
	return cmd
}

// runBackup performs one synchronous run through the scheduler so the CLI
// and the serve loop share connection handling, retention and metrics.
func runBackup(ctx context.Context, e *env, cfg *config.Config, sc backup.Config) (*backup.Result, error) {
	connector := backup.ConnectorFunc(func(ctx context.Context) (docdb.Database, error) {
		return e.open(ctx, cfg)
	})
	sched, err := backup.NewScheduler(sc, connector, archive.NewWriter(cfg.Backup.BatchSize))
	if err != nil {
		return nil, err
	}
	res, ok := sched.RunNow(ctx, backup.ReasonManual)
	if !ok || res == nil {
		return nil, errors.New("backup did not run")
	}
	if !res.Success {
		return res, errors.New(res.Error)
	}
	return res, nil
}

func printBackup(cmd *cobra.Command, res *backup.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Archive:   %s\n", res.ArchivePath)
	fmt.Fprintf(out, "Size:      %s\n", humanize.Bytes(uint64(res.ArchiveSize))) //nolint:gosec // G115: size is non-negative
	fmt.Fprintf(out, "Documents: %s\n", humanize.Comma(res.Documents))
	if len(res.Deleted) > 0 {
		fmt.Fprintf(out, "Retention: removed %d old archives\n", len(res.Deleted))
	}
	if res.RetentionError != "" {
		fmt.Fprintf(out, "Retention: incomplete: %s\n", res.RetentionError)
	}
}
