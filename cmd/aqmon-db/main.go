// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Command aqmon-db backs up and restores the aqmon MongoDB database.
//
// # Commands
//
//	aqmon-db backup  [--out-dir DIR] [--pretty]
//	aqmon-db restore ARCHIVE [--dry-run] [--yes] [--force] [--replace-existing] ...
//	aqmon-db serve
//
// backup writes one archive and applies retention. restore replays an
// archive into the configured database after a confirmation prompt and a
// safety snapshot. serve runs the backup scheduler and the status API under
// a supervisor tree until SIGINT or SIGTERM.
//
// # Configuration
//
// Settings come from built-in defaults, then an optional YAML file
// (--config, CONFIG_PATH, ./config.yaml or /etc/aqmon/config.yaml), then
// environment variables such as MONGO_URI and BACKUP_DIR. See package
// internal/config for the full list.
//
// # Exit Codes
//
//	0  success
//	1  fatal error: configuration, connectivity, archive I/O, aborted restore, failed snapshot
//	2  completed with failures: rejected documents, failed views, verification mismatch,
//	   or collections missing from a backup archive
package main

import (
	"context"
	"errors"
	"os"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	root := newRootCommand(defaultEnv())
	err := root.ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, errSilent) {
		root.PrintErrln("Error:", err)
	}
	os.Exit(exitCode(err))
}
