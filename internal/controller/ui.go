// Package controller provides output adapters for displaying synthesized
// sources, compile diagnostics and the compile journal.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "weave.dev/pkg/weave/internal/model"
)

// DisplayOption is a functional option for DisplaySource.
type DisplayOption func(*DisplayConfig)

// DisplayConfig holds configuration for displaying a source unit.
type DisplayConfig struct {
	lineNumbers bool
}

// WithLineNumbers prefixes every source line with its number.
func WithLineNumbers() DisplayOption {
	return func(c *DisplayConfig) {
		c.lineNumbers = true
	}
}

func displayConfig(options []DisplayOption) DisplayConfig {
	var cfg DisplayConfig
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI defines the interface for displaying engine results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplaySource(ctx context.Context, title, source string, options ...DisplayOption) error
	DisplayDiff(ctx context.Context, diff string) error
	DisplayCompileResults(ctx context.Context, results []m.CompileResult) error
	DisplayMembers(ctx context.Context, base m.TypeDescriptor, overridable []m.Operation) error
	DisplayHistory(ctx context.Context, records []m.CompileRecord) error
}

// NewUI returns the interactive UI for terminals and the plain one otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
