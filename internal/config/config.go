// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/docdb"
	"github.com/tomtom215/aqmon/internal/logging"
	"github.com/tomtom215/aqmon/internal/restore"
)

// Config is the complete aqmon-db configuration
type Config struct {
	Mongo   MongoConfig   `koanf:"mongo"`
	Backup  BackupConfig  `koanf:"backup"`
	Restore RestoreConfig `koanf:"restore"`
	HTTP    HTTPConfig    `koanf:"http"`
	Logging LoggingConfig `koanf:"logging"`
}

// MongoConfig holds database connection settings
type MongoConfig struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// BackupConfig holds archive writer and scheduler settings
type BackupConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Dir           string        `koanf:"dir"`
	Interval      time.Duration `koanf:"interval"`
	RetentionDays int           `koanf:"retention_days"`
	BatchSize     int           `koanf:"batch_size"`
	Pretty        bool          `koanf:"pretty"`
	StopTimeout   time.Duration `koanf:"stop_timeout"`
}

// RestoreConfig holds restore defaults; command-line flags override them
type RestoreConfig struct {
	BatchSize        int    `koanf:"batch_size"`
	VerifySampleSize int    `koanf:"verify_sample_size"`
	SnapshotDir      string `koanf:"snapshot_dir"`
	InferTimeSeries  bool   `koanf:"infer_timeseries"`
}

// HTTPConfig holds the status API listener settings
type HTTPConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in configuration
func Default() *Config {
	b := backup.DefaultConfig()
	return &Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "aqmon",
			ConnectTimeout: 10 * time.Second,
		},
		Backup: BackupConfig{
			Enabled:       b.Enabled,
			Dir:           b.Dir,
			Interval:      b.Interval,
			RetentionDays: b.RetentionDays,
			BatchSize:     1000,
			StopTimeout:   b.StopTimeout,
		},
		Restore: RestoreConfig{
			BatchSize:        restore.DefaultBatchSize,
			VerifySampleSize: restore.DefaultVerifySampleSize,
			SnapshotDir:      restore.DefaultSnapshotDir,
			InferTimeSeries:  true,
		},
		HTTP: HTTPConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            8089,
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DocDB returns the connection settings for docdb.Connect
func (c *Config) DocDB() docdb.Config {
	return docdb.Config{
		URI:            c.Mongo.URI,
		Database:       c.Mongo.Database,
		ConnectTimeout: c.Mongo.ConnectTimeout,
	}
}

// Scheduler returns the backup scheduler settings
func (c *Config) Scheduler() backup.Config {
	return backup.Config{
		Enabled:       c.Backup.Enabled,
		Dir:           c.Backup.Dir,
		Interval:      c.Backup.Interval,
		RetentionDays: c.Backup.RetentionDays,
		Pretty:        c.Backup.Pretty,
		StopTimeout:   c.Backup.StopTimeout,
	}
}

// RestoreOptions returns restore options seeded from the configuration.
// Interactive settings (confirmation, dry run, output) are left to the caller.
func (c *Config) RestoreOptions() restore.Options {
	opts := restore.DefaultOptions()
	opts.BatchSize = c.Restore.BatchSize
	opts.VerifySampleSize = c.Restore.VerifySampleSize
	opts.SnapshotDir = c.Restore.SnapshotDir
	opts.InferTimeSeries = c.Restore.InferTimeSeries
	return opts
}

// Addr returns the HTTP listen address
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// ToLogging converts to the logging package configuration
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}
