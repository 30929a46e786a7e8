// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

/*
Package restore rebuilds a database from a backup archive.

A restore runs as a linear sequence of stages and can be aborted at every
gate before the first destructive step:

 1. Extract the tar into a working directory and classify its files
 2. Build the plan: which collections to drop, create and restore
 3. Confirmation gate (typed "RESTORE" phrase, --yes, or --dry-run)
 4. Safety snapshot of the target database (abort if it fails)
 5. In force mode, disable validators on restore targets
 6. Prepare collections: drop extras, create missing (time-series from
    the manifest or inferred from sampled documents), optionally
    drop and recreate every target
 7. Insert documents in unordered batches, swallowing duplicate keys
 8. Recreate views after every collection exists
 9. Reapply saved validators with strict enforcement
 10. Verify counts and content fingerprints

Restores are idempotent: running the same archive twice yields the same
final counts, because duplicate-key failures are expected and swallowed
and existing _ids in time-series targets are skipped.

Failures of individual documents, views and validators never stop the run.
They are collected in the Report; Report.Err aggregates the ones that
should fail the command.
*/
package restore
