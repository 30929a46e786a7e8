// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package app

import (
	"errors"
	"sync"

	"github.com/tomtom215/aqmon/internal/backup"
	"github.com/tomtom215/aqmon/internal/config"
)

// ErrNoScheduler is returned when no backup scheduler has been registered
var ErrNoScheduler = errors.New("no backup scheduler registered")

// Context is the application context shared by the serve command and the API
type Context struct {
	cfg *config.Config

	mu        sync.RWMutex
	scheduler *backup.Scheduler
}

// New creates an application context for cfg
func New(cfg *config.Config) *Context {
	return &Context{cfg: cfg}
}

// Config returns the configuration the context was built with
func (c *Context) Config() *config.Config {
	return c.cfg
}

// SetScheduler registers the scheduler; a second registration replaces the first
func (c *Context) SetScheduler(s *backup.Scheduler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler = s
}

// Scheduler returns the registered scheduler or ErrNoScheduler
func (c *Context) Scheduler() (*backup.Scheduler, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.scheduler == nil {
		return nil, ErrNoScheduler
	}
	return c.scheduler, nil
}
