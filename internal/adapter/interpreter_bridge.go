package adapter

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	m "weave.dev/pkg/weave/internal/model"
)

const interpreterGoPath = "_gen"

type declKind int

const (
	declFunc declKind = iota
	declType
	declVar
	declConst
)

// InterpreterBridge compiles source units by loading them into a fresh
// yaegi interpreter. Every Compile call gets its own interpreter, so the
// bridge is safe for concurrent use.
type InterpreterBridge struct {
	vet      VetRunner
	store    SourceStore
	dumpRoot m.Path
}

// BridgeOption configures an InterpreterBridge.
type BridgeOption func(*InterpreterBridge)

// WithVetRunner enables 'go vet' findings from warning level 1.
func WithVetRunner(vet VetRunner) BridgeOption {
	return func(b *InterpreterBridge) {
		b.vet = vet
	}
}

// WithSourceStore sets where units are dumped when they are not generated
// in memory or a dump directory is configured.
func WithSourceStore(store SourceStore, defaultRoot m.Path) BridgeOption {
	return func(b *InterpreterBridge) {
		b.store = store
		b.dumpRoot = defaultRoot
	}
}

// NewInterpreterBridge constructs an InterpreterBridge.
func NewInterpreterBridge(opts ...BridgeOption) *InterpreterBridge {
	b := &InterpreterBridge{
		store:    NewLocalSourceStore(),
		dumpRoot: m.Path(filepath.Join(os.TempDir(), "weave")),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Compile implements Bridge.
func (b *InterpreterBridge) Compile(ctx context.Context, unit m.SourceUnit, deps []m.Dependency, opts m.CompileOptions) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", unit.ImportPath, err)
	}

	unit = normalizeUnit(unit, "")

	fset := token.NewFileSet()
	fileName := unit.FileName()

	file, err := parser.ParseFile(fset, fileName, unit.Text, parser.ParseComments)
	if err != nil {
		diags := syntaxDiagnostics(err, fileName)
		slog.Error("unit does not parse", "unit", unit.ImportPath, "errors", len(diags))

		return nil, &m.CompilationError{Unit: unit.ImportPath, Diagnostics: diags}
	}

	unit = normalizeUnit(unit, file.Name.Name)

	decls := declarations(file)

	for _, name := range sortedKeys(unit.Companions) {
		companion, err := parser.ParseFile(fset, name, unit.Companions[name], parser.SkipObjectResolution)
		if err != nil {
			return nil, &m.CompilationError{Unit: unit.ImportPath, Diagnostics: syntaxDiagnostics(err, name)}
		}

		for decl, kind := range declarations(companion) {
			decls[decl] = kind
		}
	}

	if opts.Optimize {
		slog.Debug("optimization is managed by the interpreter", "unit", unit.ImportPath)
	}

	warnings := b.warnings(ctx, fset, file, unit, opts)
	if opts.TreatWarningsAsErrors {
		warnings = promoteWarnings(warnings)
	}

	b.dump(unit, opts)

	if hasErrors(warnings) {
		slog.Error("warnings treated as errors", "unit", unit.ImportPath, "count", len(warnings))
		return nil, &m.CompilationError{Unit: unit.ImportPath, Diagnostics: warnings}
	}

	i, err := load(unit, deps)
	if err != nil {
		diags := append(loadDiagnostics(err, fileName), warnings...)
		slog.Error("unit failed to load", "unit", unit.ImportPath, "error", err)

		return nil, &m.CompilationError{Unit: unit.ImportPath, Diagnostics: diags}
	}

	art := &interpretedArtifact{
		id:          uuid.NewString(),
		unit:        unit,
		deps:        deps,
		diagnostics: warnings,
		decls:       decls,
		interp:      i,
	}

	slog.Info("compiled unit", "unit", unit.ImportPath, "artifact", art.id, "warnings", len(warnings))

	return art, nil
}

// normalizeUnit fills the package from pkgName and derives the import path
// from the package once one is known.
func normalizeUnit(unit m.SourceUnit, pkgName string) m.SourceUnit {
	if unit.Package == "" {
		unit.Package = pkgName
	}

	if unit.ImportPath == "" && unit.Package != "" {
		unit.ImportPath = m.GeneratedImportRoot + "/" + unit.Package
	}

	return unit
}

func (b *InterpreterBridge) warnings(ctx context.Context, fset *token.FileSet, file *ast.File, unit m.SourceUnit, opts m.CompileOptions) []m.Diagnostic {
	warnings := lint(fset, file, unit.FileName(), opts.WarningLevel)

	if opts.WarningLevel < 1 || b.vet == nil || !stdlibOnly(file) {
		return warnings
	}

	vetted, err := b.vet.Vet(ctx, unit)
	if err != nil {
		slog.Warn("vet skipped", "unit", unit.ImportPath, "error", err)
		return warnings
	}

	return append(vetted, warnings...)
}

func stdlibOnly(file *ast.File) bool {
	for _, spec := range file.Imports {
		if !isStdlib(strings.Trim(spec.Path.Value, `"`)) {
			return false
		}
	}

	return true
}

func (b *InterpreterBridge) dump(unit m.SourceUnit, opts m.CompileOptions) {
	if opts.GenerateInMemory && opts.DumpDir == "" {
		return
	}

	dir := opts.DumpDir
	if dir == "" {
		dir = b.dumpRoot
	}

	path, err := b.store.WriteUnit(dir, unit)
	if err != nil {
		slog.Warn("failed to dump unit", "unit", unit.ImportPath, "error", err)
		return
	}

	slog.Debug("dumped unit", "unit", unit.ImportPath, "path", path)
}

func load(unit m.SourceUnit, deps []m.Dependency) (i *interp.Interpreter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	dir := interpreterGoPath + "/src/" + unit.ImportPath + "/"

	fsys := fstest.MapFS{
		dir + unit.FileName(): &fstest.MapFile{Data: []byte(unit.Text)},
	}

	for name, text := range unit.Companions {
		fsys[dir+name] = &fstest.MapFile{Data: []byte(text)}
	}

	i = interp.New(interp.Options{
		GoPath:               "./" + interpreterGoPath,
		SourcecodeFilesystem: fsys,
	})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if exports := dependencyExports(deps); len(exports) > 0 {
		if err := i.Use(exports); err != nil {
			return nil, fmt.Errorf("failed to load dependencies: %w", err)
		}
	}

	if _, err := i.Eval(fmt.Sprintf("import %s %q", unit.Package, unit.ImportPath)); err != nil {
		return nil, err
	}

	return i, nil
}

func dependencyExports(deps []m.Dependency) interp.Exports {
	exports := interp.Exports{}

	var walk func([]m.Dependency)
	walk = func(deps []m.Dependency) {
		for _, dep := range deps {
			key := dep.Path + "/" + dep.Name
			if _, seen := exports[key]; seen {
				continue
			}

			exports[key] = dep.Symbols
			walk(dep.Requires)
		}
	}

	walk(deps)

	return exports
}

func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func declarations(file *ast.File) map[string]declKind {
	decls := make(map[string]declKind)

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name != "init" && d.Name.Name != "_" {
				decls[d.Name.Name] = declFunc
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					decls[s.Name.Name] = declType
				case *ast.ValueSpec:
					kind := declVar
					if d.Tok == token.CONST {
						kind = declConst
					}

					for _, name := range s.Names {
						if name.Name != "_" {
							decls[name.Name] = kind
						}
					}
				}
			}
		}
	}

	return decls
}

type interpretedArtifact struct {
	id          string
	unit        m.SourceUnit
	deps        []m.Dependency
	diagnostics []m.Diagnostic
	decls       map[string]declKind

	mu     sync.Mutex
	interp *interp.Interpreter
}

func (a *interpretedArtifact) ID() string {
	return a.id
}

func (a *interpretedArtifact) Unit() m.SourceUnit {
	return a.unit
}

func (a *interpretedArtifact) Names() []string {
	names := make([]string, 0, len(a.decls))
	for name := range a.decls {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (a *interpretedArtifact) Dependencies() []m.Dependency {
	return append([]m.Dependency(nil), a.deps...)
}

func (a *interpretedArtifact) Diagnostics() []m.Diagnostic {
	return append([]m.Diagnostic(nil), a.diagnostics...)
}

// Lookup accepts a top-level name or "Type.Method" for a method expression.
func (a *interpretedArtifact) Lookup(name string) (reflect.Value, error) {
	typeName, method, isMethod := strings.Cut(name, ".")

	kind, ok := a.decls[typeName]
	if !ok || (isMethod && kind != declType) {
		return reflect.Value{}, fmt.Errorf("%w: %s in %s", m.ErrNoSuchGeneratedType, name, a.unit.ImportPath)
	}

	qualified := a.unit.Package + "." + typeName

	switch {
	case isMethod:
		return a.eval(fmt.Sprintf("(*%s).%s", qualified, method))
	case kind == declType:
		ptr, err := a.eval(fmt.Sprintf("(*%s)(nil)", qualified))
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.New(ptr.Type().Elem()).Elem(), nil
	}

	return a.eval(qualified)
}

func (a *interpretedArtifact) eval(expr string) (v reflect.Value, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", m.ErrNoSuchGeneratedType, expr, r)
		}
	}()

	v, err = a.interp.Eval(expr)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %w", m.ErrNoSuchGeneratedType, expr, err)
	}

	return v, nil
}

// Export follows the yaegi symbol conventions: types as typed nil pointers,
// variables as addressable values.
func (a *interpretedArtifact) Export() (m.Dependency, error) {
	symbols := make(map[string]reflect.Value, len(a.decls))

	for _, name := range a.Names() {
		if !ast.IsExported(name) {
			continue
		}

		var (
			v   reflect.Value
			err error
		)

		switch a.decls[name] {
		case declType:
			v, err = a.eval(fmt.Sprintf("(*%s.%s)(nil)", a.unit.Package, name))
		case declVar:
			v, err = a.Lookup(name)
			if err == nil {
				v = variablePointer(v)
			}
		default:
			v, err = a.Lookup(name)
		}

		if err != nil {
			return m.Dependency{}, fmt.Errorf("failed to export %s: %w", name, err)
		}

		symbols[name] = v
	}

	return m.Dependency{
		Path:     a.unit.ImportPath,
		Name:     a.unit.Package,
		Symbols:  symbols,
		Requires: a.Dependencies(),
	}, nil
}

// variablePointer returns a pointer to v. Values the interpreter hands out
// unaddressable are copied, so importers see the value at export time.
func variablePointer(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}

	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)

	return ptr
}
