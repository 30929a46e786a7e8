// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/aqmon/internal/archive"
	"github.com/tomtom215/aqmon/internal/config"
	"github.com/tomtom215/aqmon/internal/restore"
)

// restoreFlags holds the restore command line; unset flags keep the configured value
type restoreFlags struct {
	dryRun            bool
	yes               bool
	force             bool
	replaceExisting   bool
	batchSize         int
	verifySampleSize  int
	noSnapshot        bool
	snapshotDir       string
	noInferTimeSeries bool
	workDir           string
}

func (f *restoreFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.dryRun, "dry-run", false, "Print the plan and exit without changes")
	fs.BoolVarP(&f.yes, "yes", "y", false, "Skip the confirmation prompt")
	fs.BoolVar(&f.force, "force", false, "Disable validators during the load and reapply them afterwards")
	fs.BoolVar(&f.replaceExisting, "replace-existing", false, "Drop and recreate collections that already exist")
	fs.IntVar(&f.batchSize, "batch-size", 0, "Documents per insert batch (default from RESTORE_BATCH_SIZE)")
	fs.IntVar(&f.verifySampleSize, "verify-sample-size", 0, "Documents sampled per collection when verifying")
	fs.BoolVar(&f.noSnapshot, "no-snapshot", false, "Skip the safety snapshot of the target database")
	fs.StringVar(&f.snapshotDir, "snapshot-dir", "", "Output root of the safety snapshot")
	fs.BoolVar(&f.noInferTimeSeries, "no-infer-timeseries", false, "Create collections missing from the manifest as regular collections")
	fs.StringVar(&f.workDir, "work-dir", "", "Extraction directory (default: a temporary directory)")
}

// options layers the flags that were set over the configured defaults
func (f *restoreFlags) options(cfg *config.Config, fs *pflag.FlagSet) restore.Options {
	opts := cfg.RestoreOptions()
	opts.DryRun = f.dryRun
	opts.Yes = f.yes
	opts.Force = f.force
	opts.ReplaceExisting = f.replaceExisting
	opts.NoSnapshot = f.noSnapshot
	opts.WorkDir = f.workDir

	if fs.Changed("batch-size") {
		opts.BatchSize = f.batchSize
	}
	if fs.Changed("verify-sample-size") {
		opts.VerifySampleSize = f.verifySampleSize
	}
	if fs.Changed("snapshot-dir") {
		opts.SnapshotDir = f.snapshotDir
	}
	if f.noInferTimeSeries {
		opts.InferTimeSeries = false
	}
	return opts
}

func newRestoreCommand(e *env, load func() (*config.Config, error)) *cobra.Command {
	flags := &restoreFlags{}

	cmd := &cobra.Command{
		Use:   "restore ARCHIVE",
		Short: "Restore a backup archive into the configured database",
		Long: `Restore the collections, views and collection options stored in a backup
archive. Existing documents are kept; documents whose _id already exists are
counted as duplicates.

Unless --yes is given the plan is printed and RESTORE must be typed to
continue. A safety snapshot of the target is written first unless
--no-snapshot is given.`,
		Example: `  # Show what would change
  aqmon-db restore backups/backup_data/backup_20260301_060000.tar --dry-run

  # Restore without prompting, recreating collections that already exist
  aqmon-db restore backup_20260301_060000.tar --yes --replace-existing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.batchSize < 0 || flags.verifySampleSize < 0 {
				return fmt.Errorf("--batch-size and --verify-sample-size must not be negative")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			opts := flags.options(cfg, cmd.Flags())
			opts.Out = cmd.OutOrStdout()
			if !opts.Yes && !opts.DryRun {
				opts.Confirm = e.confirmer()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := e.open(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB(ctx, db)

			writer := archive.NewWriter(cfg.Backup.BatchSize)
			report, err := restore.NewExecutor(db, writer).Run(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if report.DryRun {
				return nil
			}
			if err := report.Err(); err != nil {
				return withFailures(err)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
