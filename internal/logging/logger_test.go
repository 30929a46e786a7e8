// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" || cfg.Caller || cfg.Output == nil {
		t.Errorf("unexpected default config %+v", cfg)
	}
}

// Init mutates global state, so these tests are not parallel.
func TestInitFormats(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	Debug().Str("collection", "readings").Msg("json entry")
	out := buf.String()
	if !strings.Contains(out, `"level":"debug"`) || !strings.Contains(out, `"collection":"readings"`) {
		t.Errorf("json output = %s", out)
	}

	buf.Reset()
	Init(Config{Level: "warn", Format: "console", Output: &buf})
	Info().Msg("suppressed")
	Warn().Msg("console entry")
	out = buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "console entry") || strings.HasPrefix(out, "{") {
		t.Errorf("console output = %s", out)
	}
}

func TestInitCaller(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Caller: true, Output: &buf})
	Info().Msg("with caller")
	if !strings.Contains(buf.String(), "logger_test.go") {
		t.Errorf("caller missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
		valid bool
	}{
		{"trace", zerolog.TraceLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"WARNING", zerolog.WarnLevel, true},
		{" error ", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"verbose", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestSetLogger(t *testing.T) {
	original := Logger()
	defer SetLogger(original)

	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	componentLogger := WithComponent("scheduler")
	componentLogger.Info().Msg("tick")
	Err(nil).Msg("nil error logs at info")

	out := buf.String()
	if !strings.Contains(out, `"component":"scheduler"`) {
		t.Errorf("component missing: %s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected two entries, got %q", out)
	}
}

func TestInitServiceField(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Output: &buf})
	Info().Msg("default service")
	if !strings.Contains(buf.String(), `"service":"aqmon-db"`) {
		t.Errorf("service field missing: %s", buf.String())
	}

	buf.Reset()
	Init(Config{Service: "aqmon-db-test", Output: &buf})
	Info().Msg("custom service")
	if !strings.Contains(buf.String(), `"service":"aqmon-db-test"`) {
		t.Errorf("service = %s", buf.String())
	}
}
