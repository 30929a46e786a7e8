// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

// Package config loads the aqmon-db configuration with koanf.
//
// Sources are layered, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/aqmon/config.yaml
//  3. Environment variables
//
// Environment variables:
//
//	MONGO_URI                   connection string (default mongodb://localhost:27017)
//	MONGO_DB_NAME               database to back up and restore (default aqmon)
//	MONGO_CONNECT_TIMEOUT       connect and server selection timeout (default 10s)
//	BACKUP_ENABLED              run the periodic backup loop (default true)
//	BACKUP_DIR                  archive root; archives go to <dir>/backup_data (default ./backups)
//	BACKUP_INTERVAL             time between scheduled backups (default 24h)
//	BACKUP_RETENTION_DAYS       delete archives older than this; 0 disables (default 14)
//	BACKUP_BATCH_SIZE           cursor batch size while dumping (default 1000)
//	BACKUP_PRETTY               indent the collections manifest (default false)
//	BACKUP_STOP_TIMEOUT         how long shutdown waits for a running backup (default 30s)
//	RESTORE_BATCH_SIZE          documents per bulk insert (default 1000)
//	RESTORE_VERIFY_SAMPLE_SIZE  documents fingerprinted per collection (default 100)
//	RESTORE_SNAPSHOT_DIR        where pre-restore snapshots go (default ./backups/pre_restore)
//	RESTORE_INFER_TIMESERIES    infer time-series options for new collections (default true)
//	HTTP_ENABLED                serve the status API from the serve command (default true)
//	HTTP_HOST, HTTP_PORT        listen address (default 127.0.0.1:8089)
//	HTTP_RATE_LIMIT_REQS        requests per window per client (default 30)
//	HTTP_RATE_LIMIT_WINDOW      rate limit window (default 1m)
//	LOG_LEVEL, LOG_FORMAT, LOG_CALLER
//
// The configuration is read once when a command starts.
package config
