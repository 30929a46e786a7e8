// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when confirmation is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal; use --yes or --dry-run")

// Confirmer asks the operator to type phrase before a destructive step
type Confirmer interface {
	Confirm(ctx context.Context, prompt, phrase string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt, phrase string) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt, phrase string) (bool, error) {
	return f(ctx, prompt, phrase)
}

// PromptConfirmer reads the phrase from a line-oriented input
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer

	// Reports whether input is interactive; nil means always
	isTerminal func() bool
}

// NewPromptConfirmer creates a confirmer reading from in and prompting on out
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// NewTerminalConfirmer prompts on stdout and refuses to read a non-terminal stdin
func NewTerminalConfirmer() *PromptConfirmer {
	c := NewPromptConfirmer(os.Stdin, os.Stdout)
	c.isTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: fd fits in int
	}
	return c
}

// Confirm prints prompt and returns true only when the typed line equals phrase
func (c *PromptConfirmer) Confirm(ctx context.Context, prompt, phrase string) (bool, error) {
	if c.isTerminal != nil && !c.isTerminal() {
		return false, ErrNotInteractive
	}

	fmt.Fprintf(c.out, "%s\nType %s to continue: ", prompt, phrase)
	line, err := readLine(ctx, c.in)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == phrase, nil
}

// readLine reads one line and gives up when ctx is done
func readLine(ctx context.Context, r *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if errors.Is(res.err, io.EOF) {
			return "", ErrAborted
		}
		return res.line, res.err
	}
}
