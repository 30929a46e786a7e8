// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/aqmon/internal/logging"
)

// Validate checks the configuration and returns the first problem found
func (c *Config) Validate() error {
	if err := c.validateMongo(); err != nil {
		return err
	}
	if err := c.Scheduler().Validate(); err != nil {
		return err
	}
	if c.Backup.BatchSize <= 0 {
		return fmt.Errorf("BACKUP_BATCH_SIZE must be positive, got: %d", c.Backup.BatchSize)
	}
	if c.Backup.RetentionDays > 3650 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be at most 3650, got: %d", c.Backup.RetentionDays)
	}
	if err := c.validateRestore(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMongo() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	u, err := url.Parse(c.Mongo.URI)
	if err != nil {
		return fmt.Errorf("MONGO_URI is not a valid connection string: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("MONGO_URI must use the mongodb:// or mongodb+srv:// scheme, got: %q", u.Scheme)
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if strings.ContainsAny(c.Mongo.Database, "/\\. \"$") {
		return fmt.Errorf("MONGO_DB_NAME contains characters not allowed in a database name: %q", c.Mongo.Database)
	}
	if c.Mongo.ConnectTimeout < 0 {
		return fmt.Errorf("MONGO_CONNECT_TIMEOUT must not be negative, got: %s", c.Mongo.ConnectTimeout)
	}
	return nil
}

func (c *Config) validateRestore() error {
	if c.Restore.BatchSize <= 0 {
		return fmt.Errorf("RESTORE_BATCH_SIZE must be positive, got: %d", c.Restore.BatchSize)
	}
	if c.Restore.VerifySampleSize <= 0 {
		return fmt.Errorf("RESTORE_VERIFY_SAMPLE_SIZE must be positive, got: %d", c.Restore.VerifySampleSize)
	}
	if c.Restore.SnapshotDir == "" {
		return fmt.Errorf("RESTORE_SNAPSHOT_DIR is required")
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if !c.HTTP.Enabled {
		return nil
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitReqs < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_REQS must not be negative, got: %d", c.HTTP.RateLimitReqs)
	}
	if c.HTTP.RateLimitReqs > 0 && c.HTTP.RateLimitWindow < time.Second {
		return fmt.Errorf("HTTP_RATE_LIMIT_WINDOW must be at least 1s, got: %s", c.HTTP.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("LOG_FORMAT must be json or console, got: %q", c.Logging.Format)
}
