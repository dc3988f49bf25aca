package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"weave.dev/pkg/weave/internal/adapter"
	"weave.dev/pkg/weave/internal/controller"
	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/journal"
)

const recursiveSuffix = "/..."

// RenderArgs contains the arguments for rendering one blueprint.
type RenderArgs struct {
	Blueprint   m.Path
	Diff        m.Path
	LineNumbers bool
}

// CompileArgs contains the arguments for compiling blueprints.
type CompileArgs struct {
	Paths   []m.Path
	Journal string
	Threads int
}

// MembersArgs contains the arguments for listing the operations of a base.
type MembersArgs struct {
	File m.Path
	Type string
}

// HistoryArgs contains the arguments for reading the compile journal.
type HistoryArgs struct {
	Journal string
}

// Workflow drives blueprints from disk through the assembler and reports
// the outcome on a UI.
type Workflow interface {
	Render(ctx context.Context, args RenderArgs) error
	Compile(ctx context.Context, args CompileArgs) ([]m.CompileResult, error)
	Members(ctx context.Context, args MembersArgs) error
	History(ctx context.Context, args HistoryArgs) error
}

type workflow struct {
	adapter.SourceStore
	adapter.SourceMetadata
	controller.UI

	bridge  adapter.Bridge
	options func() m.CompileOptions
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
// options is consulted on every run so configuration changes take effect
// without rebuilding the workflow.
func NewWorkflow(
	store adapter.SourceStore,
	metadata adapter.SourceMetadata,
	ui controller.UI,
	bridge adapter.Bridge,
	options func() m.CompileOptions,
) Workflow {
	if options == nil {
		options = m.DefaultCompileOptions
	}

	return &workflow{
		SourceStore:    store,
		SourceMetadata: metadata,
		UI:             ui,
		bridge:         bridge,
		options:        options,
	}
}

func (w *workflow) builder() *BlueprintBuilder {
	return NewBlueprintBuilder(w.bridge, w.SourceStore, w.SourceMetadata, w.options())
}

// Render displays the source a blueprint synthesizes, or its diff against
// an existing file.
func (w *workflow) Render(ctx context.Context, args RenderArgs) error {
	asm, err := w.assemble(args.Blueprint)
	if err != nil {
		slog.Error("Failed to assemble blueprint", "blueprint", args.Blueprint, "error", err)
		return err
	}

	source := asm.GenerateSource()

	if args.Diff != "" {
		previous, err := w.ReadFile(args.Diff)
		if err != nil {
			slog.Error("Failed to read diff target", "path", args.Diff, "error", err)
			return fmt.Errorf("read %s: %w", args.Diff, err)
		}

		diff, err := adapter.UnifiedDiff(string(args.Diff), string(args.Blueprint), string(previous), source)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		return w.DisplayDiff(ctx, diff)
	}

	var options []controller.DisplayOption
	if args.LineNumbers {
		options = append(options, controller.WithLineNumbers())
	}

	title := asm.Package() + "." + asm.TypeName()

	return w.DisplaySource(ctx, title, source, options...)
}

func (w *workflow) assemble(path m.Path) (*Assembler, error) {
	bp, err := LoadBlueprint(w.SourceStore, path)
	if err != nil {
		return nil, err
	}

	return w.builder().Build(bp, m.Path(filepath.Dir(string(path))))
}

// Compile compiles every blueprint found under args.Paths, records each
// outcome in the journal and displays the results. An error wrapping
// ErrCompilationFailure is returned when any blueprint did not compile.
func (w *workflow) Compile(ctx context.Context, args CompileArgs) ([]m.CompileResult, error) {
	paths, err := w.collectBlueprints(args.Paths)
	if err != nil {
		slog.Error("Failed to collect blueprints", "error", err)
		return nil, fmt.Errorf("collect blueprints: %w", err)
	}

	results := make([]m.CompileResult, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	if args.Threads > 0 {
		group.SetLimit(args.Threads)
	}

	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[i] = w.compileBlueprint(groupCtx, path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if args.Journal != "" {
		if err := appendRecords(args.Journal, results); err != nil {
			return results, err
		}
	}

	if err := w.DisplayCompileResults(ctx, results); err != nil {
		slog.Error("Failed to display compile results", "error", err)
		return results, fmt.Errorf("display: %w", err)
	}

	failed := 0

	for _, r := range results {
		if r.Status != m.Compiled {
			failed++
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d blueprints", m.ErrCompilationFailure, failed, len(results))
	}

	return results, nil
}

func (w *workflow) compileBlueprint(ctx context.Context, path m.Path) m.CompileResult {
	result := m.CompileResult{Blueprint: m.File{Path: path}, Status: m.Invalid}

	data, err := w.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	result.Blueprint.Hash = adapter.HashSource(string(data))

	bp, err := DecodeBlueprint(string(path), data)
	if err != nil {
		result.Err = err
		return result
	}

	asm, err := w.builder().Build(bp, m.Path(filepath.Dir(string(path))))
	if err != nil {
		result.Err = err
		return result
	}

	result.Package = asm.Package()
	result.TypeName = asm.TypeName()
	result.SourceHash = adapter.HashSource(asm.GenerateSource())

	generated, err := asm.Compile(ctx)
	if err != nil {
		slog.Debug("blueprint did not compile", "blueprint", path, "error", err)

		result.Err = err

		var compileErr *m.CompilationError
		if errors.As(err, &compileErr) {
			result.Status = m.Failed
			result.Diagnostics = compileErr.Diagnostics
		}

		return result
	}

	result.Status = m.Compiled
	result.Diagnostics = generated.Artifact.Diagnostics()

	return result
}

// collectBlueprints expands paths into blueprint files. A path ending in
// "/..." is walked recursively; a plain directory only at its top level.
func (w *workflow) collectBlueprints(paths []m.Path) ([]m.Path, error) {
	if len(paths) == 0 {
		paths = []m.Path{"."}
	}

	seen := make(map[m.Path]struct{})

	var found []m.Path

	add := func(p m.Path) {
		if _, ok := seen[p]; ok {
			return
		}

		seen[p] = struct{}{}
		found = append(found, p)
	}

	for _, path := range paths {
		root := string(path)
		recursive := strings.HasSuffix(root, recursiveSuffix)

		if recursive {
			root = strings.TrimSuffix(root, recursiveSuffix)
			if root == "" {
				root = "."
			}
		}

		info, err := w.FileInfo(m.Path(root))
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			add(m.Path(root))
			continue
		}

		err = w.Walk(m.Path(root), recursive, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if !info.IsDir() && IsBlueprintFile(p) {
				add(m.Path(p))
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(found)

	return found, nil
}

func appendRecords(path string, results []m.CompileResult) error {
	jr, err := journal.Open[m.CompileRecord](path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := jr.Close(); cerr != nil {
			slog.Warn("failed to close journal", "path", path, "error", cerr)
		}
	}()

	now := time.Now().UTC()
	records := make([]m.CompileRecord, 0, len(results))

	for _, r := range results {
		errs, warnings := r.Counts()
		if r.Err != nil && errs == 0 {
			errs = 1
		}

		records = append(records, m.CompileRecord{
			ID:         uuid.NewString(),
			Package:    r.Package,
			TypeName:   r.TypeName,
			Blueprint:  string(r.Blueprint.Path),
			Succeeded:  r.Status == m.Compiled,
			Errors:     errs,
			Warnings:   warnings,
			SourceHash: r.SourceHash,
			Timestamp:  now,
		})
	}

	if err := jr.AppendBatch(records); err != nil {
		slog.Error("Failed to append compile records", "path", path, "error", err)
		return fmt.Errorf("append compile records: %w", err)
	}

	return nil
}

// Members displays the operations of a base type and which of them a
// subclass may override.
func (w *workflow) Members(ctx context.Context, args MembersArgs) error {
	base, err := w.DescribeFile(args.File, args.Type)
	if err != nil {
		slog.Error("Failed to describe base", "file", args.File, "type", args.Type, "error", err)
		return err
	}

	sub, err := NewSubclass(w.bridge, base)
	if err != nil {
		return err
	}

	return w.DisplayMembers(ctx, base, slices.Collect(sub.Overridable()))
}

// History displays every record of the compile journal.
func (w *workflow) History(ctx context.Context, args HistoryArgs) error {
	if _, err := os.Stat(args.Journal); errors.Is(err, os.ErrNotExist) {
		return w.DisplayHistory(ctx, nil)
	}

	jr, err := journal.Open[m.CompileRecord](args.Journal)
	if err != nil {
		return err
	}

	defer func() { _ = jr.Close() }()

	records := make([]m.CompileRecord, 0, jr.Len())

	err = jr.Range(func(_ uint64, r m.CompileRecord) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		slog.Error("Failed to read journal", "path", args.Journal, "error", err)
		return fmt.Errorf("read journal: %w", err)
	}

	return w.DisplayHistory(ctx, records)
}
