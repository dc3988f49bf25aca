// Package adapter contains toolchain, metadata and UI adapters for the weave CLI.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "weave.dev/pkg/weave/internal/model"
)

// SourceStore abstracts the filesystem access the weave commands need:
// finding blueprints, reading base sources and dumping synthesized units.
type SourceStore interface {
	// Walk traverses root. When recursive is false only the root directory
	// itself is visited.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// WriteUnit writes the unit text below dir, under its import path, and
	// returns the file written.
	WriteUnit(dir m.Path, unit m.SourceUnit) (m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceStore is the os-backed SourceStore.
type LocalSourceStore struct{}

// NewLocalSourceStore constructs a LocalSourceStore.
func NewLocalSourceStore() *LocalSourceStore {
	return &LocalSourceStore{}
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceStore) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceStore) ReadFile(path m.Path) ([]byte, error) {
	// #nosec G304 - path is a user-selected blueprint or base source
	return os.ReadFile(string(path))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceStore) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// WriteUnit implements SourceStore.
func (a *LocalSourceStore) WriteUnit(dir m.Path, unit m.SourceUnit) (m.Path, error) {
	rel := strings.TrimPrefix(unit.ImportPath, m.GeneratedImportRoot+"/")
	target := filepath.Join(string(dir), filepath.FromSlash(rel), unit.FileName())

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	if err := os.WriteFile(target, []byte(unit.Text), 0o600); err != nil {
		return "", fmt.Errorf("failed to write unit %s: %w", unit.ImportPath, err)
	}

	return m.Path(target), nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceStore) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// HashSource returns the SHA-256 fingerprint of a unit's text.
func HashSource(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// UnifiedDiff renders a unified diff between two versions of a unit.
func UnifiedDiff(fromName, toName, from, to string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}
