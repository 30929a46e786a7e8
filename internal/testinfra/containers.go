// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

//go:build integration

package testinfra

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if the Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates a container and logs, rather than fails on, errors.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	if container == nil {
		return
	}
	if err := container.Terminate(ctx); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}

// ContainerLogs returns the container output, for failure messages
func ContainerLogs(ctx context.Context, container testcontainers.Container) string {
	reader, err := container.Logs(ctx)
	if err != nil {
		return "logs unavailable: " + err.Error()
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return string(out) + "\n(read error: " + err.Error() + ")"
	}
	return string(out)
}
