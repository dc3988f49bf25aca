package domain

import (
	"context"
	"fmt"
	"go/format"
	"go/token"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
)

// Defaults for a fresh Assembler.
const (
	DefaultPackage  = "woven"
	DefaultTypeName = "Woven"
)

// Generated is a compiled type together with the artifact it lives in.
type Generated struct {
	Artifact adapter.Artifact
	Type     reflect.Type
}

// Assembler accumulates member fragments for one type definition and turns
// them into a source unit, then into a loaded type. It is single-owner and
// not safe for concurrent mutation.
type Assembler struct {
	pkg        string
	typeName   string
	base       *m.TypeDescriptor
	imports    map[string]struct{}
	deps       []m.Dependency
	companions map[string]string
	options    m.CompileOptions
	registry   *Registry
	bridge     adapter.Bridge
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithPackage sets the package clause of the generated unit.
func WithPackage(pkg string) AssemblerOption {
	return func(a *Assembler) {
		a.pkg = pkg
	}
}

// WithTypeName sets the name of the generated type.
func WithTypeName(name string) AssemblerOption {
	return func(a *Assembler) {
		a.typeName = name
	}
}

// WithCompileOptions sets the options passed to the bridge.
func WithCompileOptions(opts m.CompileOptions) AssemblerOption {
	return func(a *Assembler) {
		a.options = opts
	}
}

// NewAssembler returns an empty assembler compiling through bridge.
func NewAssembler(bridge adapter.Bridge, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		pkg:        DefaultPackage,
		typeName:   DefaultTypeName,
		imports:    make(map[string]struct{}),
		companions: make(map[string]string),
		options:    m.DefaultCompileOptions(),
		registry:   NewRegistry(),
		bridge:     bridge,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Package returns the package clause of the generated unit.
func (a *Assembler) Package() string {
	return a.pkg
}

// SetPackage sets the package clause of the generated unit.
func (a *Assembler) SetPackage(pkg string) {
	a.pkg = pkg
}

// TypeName returns the name of the generated type.
func (a *Assembler) TypeName() string {
	return a.typeName
}

// SetTypeName sets the name of the generated type.
func (a *Assembler) SetTypeName(name string) {
	a.typeName = name
}

// ImportPath is where the generated package is loaded from.
func (a *Assembler) ImportPath() string {
	return m.GeneratedImportRoot + "/" + a.pkg
}

// Options returns the compile options.
func (a *Assembler) Options() m.CompileOptions {
	return a.options
}

// SetOptions replaces the compile options.
func (a *Assembler) SetOptions(opts m.CompileOptions) {
	a.options = opts
}

// Registry exposes the member registry.
func (a *Assembler) Registry() *Registry {
	return a.registry
}

// SetBaseType makes the generated type embed base. A base from another
// package is imported automatically.
func (a *Assembler) SetBaseType(base m.TypeDescriptor) {
	a.base = &base
}

// BaseType returns the embedded base type, if any.
func (a *Assembler) BaseType() (m.TypeDescriptor, bool) {
	if a.base == nil {
		return m.TypeDescriptor{}, false
	}

	return *a.base, true
}

func (a *Assembler) baseExpr() string {
	if a.base == nil {
		return ""
	}

	return a.base.QualifiedName(a.ImportPath())
}

// AddField adds a struct field such as "count int".
func (a *Assembler) AddField(fragment string) error {
	return a.add(m.CategoryField, fragment)
}

// AddConstructor adds a constructor function.
func (a *Assembler) AddConstructor(fragment string) error {
	return a.add(m.CategoryConstructor, fragment)
}

// AddProperty adds an accessor method.
func (a *Assembler) AddProperty(fragment string) error {
	return a.add(m.CategoryProperty, fragment)
}

// AddNotification adds a notification point accessor.
func (a *Assembler) AddNotification(fragment string) error {
	return a.add(m.CategoryNotification, fragment)
}

// AddMethod adds a method or package-level function.
func (a *Assembler) AddMethod(fragment string) error {
	return a.add(m.CategoryMethod, fragment)
}

// AddNestedType adds a type declaration owned by the generated type.
func (a *Assembler) AddNestedType(fragment string) error {
	return a.add(m.CategoryNestedType, fragment)
}

func (a *Assembler) add(category m.Category, fragment string) error {
	key, err := extractKey(fragment, category)
	if err != nil {
		return err
	}

	return a.registry.Add(category, key, fragment)
}

// AddMember adds fragment under an explicit key, skipping name extraction.
func (a *Assembler) AddMember(category m.Category, key m.MemberKey, fragment string) error {
	return a.registry.Add(category, key, fragment)
}

// AddImport adds import paths to the unit.
func (a *Assembler) AddImport(paths ...string) {
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			a.imports[path] = struct{}{}
		}
	}
}

// Imports returns the sorted import set, including the base package.
func (a *Assembler) Imports() []string {
	set := make(map[string]struct{}, len(a.imports)+1)
	for path := range a.imports {
		set[path] = struct{}{}
	}

	if a.base != nil && a.base.PkgPath != "" && a.base.PkgPath != a.ImportPath() {
		set[a.base.PkgPath] = struct{}{}
	}

	imports := make([]string, 0, len(set))
	for path := range set {
		imports = append(imports, path)
	}

	sort.Strings(imports)

	return imports
}

// AddDependency adds dep and, transitively, what it requires. Dependencies
// keep insertion order and are unique by import path.
func (a *Assembler) AddDependency(dep m.Dependency) {
	for _, existing := range a.deps {
		if existing.Path == dep.Path {
			return
		}
	}

	a.deps = append(a.deps, dep)

	for _, required := range dep.Requires {
		a.AddDependency(required)
	}
}

// AddArtifact makes a previously compiled artifact importable: its own
// dependencies and its exported symbols are added.
func (a *Assembler) AddArtifact(art adapter.Artifact) error {
	if art == nil {
		return fmt.Errorf("%w: artifact", m.ErrNullArgument)
	}

	for _, dep := range art.Dependencies() {
		a.AddDependency(dep)
	}

	exported, err := art.Export()
	if err != nil {
		return fmt.Errorf("failed to export artifact %s: %w", art.ID(), err)
	}

	a.AddDependency(exported)

	return nil
}

// Dependencies returns the dependency set in insertion order.
func (a *Assembler) Dependencies() []m.Dependency {
	return append([]m.Dependency(nil), a.deps...)
}

// AddCompanion adds another file of the generated package, such as the
// source of a base type declared in the same package.
func (a *Assembler) AddCompanion(name, text string) {
	a.companions[name] = text
}

// Render renders the registered members.
func (a *Assembler) Render() string {
	return a.registry.Render(a.typeName, a.baseExpr())
}

// GenerateSource renders the complete source unit text.
func (a *Assembler) GenerateSource() string {
	return a.GenerateSourceWith(a.Render())
}

// GenerateSourceWith renders a complete unit around body: package clause,
// imports, a bare declaration of the type when no field is registered, and
// body. The text is gofmt-formatted when it parses.
func (a *Assembler) GenerateSourceWith(body string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "package %s\n", a.pkg)

	if imports := a.Imports(); len(imports) > 0 {
		b.WriteString("\nimport (\n")

		for _, path := range imports {
			fmt.Fprintf(&b, "\t%q\n", path)
		}

		b.WriteString(")\n")
	}

	if a.registry.Len(m.CategoryField) == 0 {
		b.WriteString("\n")

		if base := a.baseExpr(); base != "" {
			fmt.Fprintf(&b, "type %s struct {\n\t%s\n}\n", a.typeName, base)
		} else {
			fmt.Fprintf(&b, "type %s struct{}\n", a.typeName)
		}
	}

	if body != "" {
		b.WriteString("\n" + strings.TrimRight(body, "\n") + "\n")
	}

	formatted, err := format.Source([]byte(b.String()))
	if err != nil {
		slog.Debug("generated source does not format", "type", a.typeName, "error", err)
		return b.String()
	}

	return string(formatted)
}

// Unit builds the source unit for body.
func (a *Assembler) Unit(body string) m.SourceUnit {
	companions := make(map[string]string, len(a.companions))
	for name, text := range a.companions {
		companions[name] = text
	}

	return m.SourceUnit{
		Package:    a.pkg,
		ImportPath: a.ImportPath(),
		TypeName:   a.typeName,
		Base:       a.baseExpr(),
		Imports:    a.Imports(),
		Body:       body,
		Text:       a.GenerateSourceWith(body),
		Companions: companions,
	}
}

// Compile renders the registered members and compiles them.
func (a *Assembler) Compile(ctx context.Context) (Generated, error) {
	return a.CompileWith(ctx, a.Render())
}

// CompileWith compiles a unit around body and resolves the generated type.
// Every call is a separate bridge invocation.
func (a *Assembler) CompileWith(ctx context.Context, body string) (Generated, error) {
	if err := a.validate(); err != nil {
		return Generated{}, err
	}

	art, err := a.compileUnit(ctx, a.Unit(body))
	if err != nil {
		return Generated{}, err
	}

	v, err := art.Lookup(a.typeName)
	if err != nil {
		return Generated{}, fmt.Errorf("%w: %s in %s", m.ErrNoSuchGeneratedType, a.typeName, a.ImportPath())
	}

	return Generated{Artifact: art, Type: v.Type()}, nil
}

func (a *Assembler) compileUnit(ctx context.Context, unit m.SourceUnit) (adapter.Artifact, error) {
	if a.bridge == nil {
		return nil, fmt.Errorf("%w: no bridge configured", m.ErrInvalidConfiguration)
	}

	slog.Debug("compiling unit", "unit", unit.ImportPath, "type", unit.TypeName, "dependencies", len(a.deps))

	art, err := a.bridge.Compile(ctx, unit, a.Dependencies(), a.options)
	if err != nil {
		return nil, err
	}

	return art, nil
}

func (a *Assembler) validate() error {
	if strings.TrimSpace(a.pkg) == "" || strings.TrimSpace(a.typeName) == "" {
		return fmt.Errorf("%w: package and type name are required", m.ErrInvalidConfiguration)
	}

	if !token.IsIdentifier(a.pkg) || !token.IsIdentifier(a.typeName) {
		return fmt.Errorf("%w: %q and %q must be identifiers", m.ErrInvalidConfiguration, a.pkg, a.typeName)
	}

	if a.options.WarningLevel < 0 || a.options.WarningLevel > m.MaxWarningLevel {
		return fmt.Errorf("%w: warning level %d out of range", m.ErrInvalidConfiguration, a.options.WarningLevel)
	}

	return nil
}
