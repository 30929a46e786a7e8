// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/aqmon/config.yaml",
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variables (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"mongo_uri":             "mongo.uri",
	"mongo_db_name":         "mongo.database",
	"mongo_connect_timeout": "mongo.connect_timeout",

	"backup_enabled":        "backup.enabled",
	"backup_dir":            "backup.dir",
	"backup_interval":       "backup.interval",
	"backup_retention_days": "backup.retention_days",
	"backup_batch_size":     "backup.batch_size",
	"backup_pretty":         "backup.pretty",
	"backup_stop_timeout":   "backup.stop_timeout",

	"restore_batch_size":         "restore.batch_size",
	"restore_verify_sample_size": "restore.verify_sample_size",
	"restore_snapshot_dir":       "restore.snapshot_dir",
	"restore_infer_timeseries":   "restore.infer_timeseries",

	"http_enabled":           "http.enabled",
	"http_host":              "http.host",
	"http_port":              "http.port",
	"http_rate_limit_reqs":   "http.rate_limit_reqs",
	"http_rate_limit_window": "http.rate_limit_window",
	"http_shutdown_timeout":  "http.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// Load reads defaults, the config file if one is found, then the environment,
// and validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc returns the koanf path for an environment variable, or ""
// to drop it.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
