// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package backup

import (
	"fmt"
	"time"
)

// Config holds scheduler configuration
type Config struct {
	// Enable the periodic backup loop
	Enabled bool

	// Output root; archives go to <Dir>/backup_data
	Dir string

	// Time between the end of one scheduled backup and the start of the next
	Interval time.Duration

	// Archives older than this many days are deleted; <= 0 disables retention
	RetentionDays int

	// Indent the collections manifest
	Pretty bool

	// Upper bound on how long Stop waits for the loop and in-flight runs
	StopTimeout time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Dir:           "./backups",
		Interval:      24 * time.Hour,
		RetentionDays: 14,
		StopTimeout:   30 * time.Second,
	}
}

// Validate checks that the configuration is valid
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required when backups are enabled")
	}
	if c.Interval < time.Minute {
		return fmt.Errorf("BACKUP_INTERVAL must be at least 1m, got: %s", c.Interval)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("backup stop timeout must not be negative, got: %s", c.StopTimeout)
	}
	return nil
}
