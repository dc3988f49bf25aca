package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	m "weave.dev/pkg/weave/internal/model"
)

// VetRunner runs the Go toolchain's static checks over a source unit.
type VetRunner interface {
	// Vet reports the findings of 'go vet' as warnings. A unit that cannot
	// be vetted at all returns an error and no diagnostics.
	Vet(ctx context.Context, unit m.SourceUnit) ([]m.Diagnostic, error)
}

// LocalVetRunner writes the unit into a scratch module and runs 'go vet'
// there using os/exec.
type LocalVetRunner struct {
	timeout time.Duration
	goBin   string
}

// NewLocalVetRunner constructs a LocalVetRunner with default 30s timeout.
func NewLocalVetRunner() *LocalVetRunner {
	return &LocalVetRunner{
		timeout: 30 * time.Second,
		goBin:   "go",
	}
}

// Available reports whether the go binary can be found.
func (a *LocalVetRunner) Available() bool {
	_, err := exec.LookPath(a.goBin)
	return err == nil
}

// Vet implements VetRunner.
func (a *LocalVetRunner) Vet(ctx context.Context, unit m.SourceUnit) ([]m.Diagnostic, error) {
	dir, err := os.MkdirTemp("", "weave-vet-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create vet workspace: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove vet workspace", "dir", dir, "error", err)
		}
	}()

	gomod := fmt.Sprintf("module %s\n\ngo 1.22\n", unit.ImportPath)
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(gomod), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write vet go.mod: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, unit.FileName()), []byte(unit.Text), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write vet source: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.goBin, "vet", "./...")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod", "GOWORK=off")

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := stdout.String() + stderr.String()

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("failed to run go vet: %w", runErr)
	}

	diags := parseDiagnostics(output, m.SeverityWarning)
	slog.Debug("vet finished", "unit", unit.ImportPath, "findings", len(diags))

	return diags, nil
}
