// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPromptConfirmer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr error
	}{
		{"exact phrase", "RESTORE\n", true, nil},
		{"surrounding spaces", "  RESTORE  \n", true, nil},
		{"no trailing newline", "RESTORE", true, nil},
		{"lowercase", "restore\n", false, nil},
		{"yes is not enough", "yes\n", false, nil},
		{"closed input", "", false, ErrAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			c := NewPromptConfirmer(strings.NewReader(tt.input), &out)

			got, err := c.Confirm(context.Background(), "Restore into aqmon?", ConfirmPhrase)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Confirm error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Type RESTORE to continue") {
				t.Errorf("prompt not printed: %q", out.String())
			}
		})
	}
}

func TestPromptConfirmerNotInteractive(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	c := NewPromptConfirmer(strings.NewReader("RESTORE\n"), &out)
	c.isTerminal = func() bool { return false }

	ok, err := c.Confirm(context.Background(), "prompt", ConfirmPhrase)
	if ok || !errors.Is(err, ErrNotInteractive) {
		t.Errorf("Confirm = %v, %v; want false, ErrNotInteractive", ok, err)
	}
	if out.Len() != 0 {
		t.Error("no prompt should be printed without a terminal")
	}
}

func TestPromptConfirmerCancelled(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewPromptConfirmer(r, io.Discard)
	ok, err := c.Confirm(ctx, "prompt", ConfirmPhrase)
	if ok || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Confirm = %v, %v; want false, DeadlineExceeded", ok, err)
	}
}
