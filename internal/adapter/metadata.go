package adapter

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/notify"
)

// MetadataSource describes loaded types: their operations and the
// notification points their instances expose.
type MetadataSource interface {
	// Describe accepts a reflect.Type or any value of the type (pointers are
	// dereferenced).
	Describe(v any) (m.TypeDescriptor, error)

	// DescribePoints lists the live notification points of target.
	DescribePoints(target any) ([]m.NotificationPoint, error)
}

// ReflectMetadata is the reflect-backed MetadataSource. Every method in the
// pointer method set is public and overridable by shadowing, so operations
// are reported as virtual.
type ReflectMetadata struct{}

// NewReflectMetadata constructs a ReflectMetadata.
func NewReflectMetadata() *ReflectMetadata {
	return &ReflectMetadata{}
}

// Describe implements MetadataSource.
func (r *ReflectMetadata) Describe(v any) (m.TypeDescriptor, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		if v == nil {
			return m.TypeDescriptor{}, fmt.Errorf("%w: nothing to describe", m.ErrNullArgument)
		}

		t = reflect.TypeOf(v)
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	desc := m.TypeDescriptor{
		PkgPath:  t.PkgPath(),
		PkgName:  packageName(t),
		Name:     t.Name(),
		Exported: m.IsExportedName(t.Name()),
	}

	switch t.Kind() {
	case reflect.Struct:
		desc.Kind = m.KindStruct
		desc.Operations = methodOperations(reflect.PointerTo(t), t.Name(), 1)
	case reflect.Interface:
		desc.Kind = m.KindInterface
		desc.Operations = methodOperations(t, t.Name(), 0)
	default:
		desc.Kind = m.KindOther
		desc.Operations = methodOperations(reflect.PointerTo(t), t.Name(), 1)
	}

	slog.Debug("described type", "type", t.String(), "operations", len(desc.Operations))

	return desc, nil
}

func methodOperations(t reflect.Type, owner string, skip int) []m.Operation {
	ops := make([]m.Operation, 0, t.NumMethod())

	for i := range t.NumMethod() {
		method := t.Method(i)

		params, results := funcParams(method.Type, skip)
		ops = append(ops, m.Operation{
			Name:        method.Name,
			Owner:       owner,
			Params:      params,
			Results:     results,
			Visibility:  m.VisPublic,
			Virtual:     true,
			SpecialName: strings.HasPrefix(method.Name, "__"),
		})
	}

	return ops
}

func funcParams(ft reflect.Type, skip int) ([]m.Param, []m.Param) {
	params := make([]m.Param, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		params = append(params, m.Param{
			Name:     fmt.Sprintf("arg%d", i-skip),
			Type:     m.TypeRefOf(ft.In(i)),
			Variadic: ft.IsVariadic() && i == ft.NumIn()-1,
		})
	}

	results := make([]m.Param, 0, ft.NumOut())
	for i := range ft.NumOut() {
		results = append(results, m.Param{Type: m.TypeRefOf(ft.Out(i))})
	}

	return params, results
}

// DescribePoints implements MetadataSource.
func (r *ReflectMetadata) DescribePoints(target any) ([]m.NotificationPoint, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nothing to describe", m.ErrNullArgument)
	}

	owner := reflect.TypeOf(target)
	for owner.Kind() == reflect.Pointer {
		owner = owner.Elem()
	}

	fields := notify.Fields(target)
	points := make([]m.NotificationPoint, 0, len(fields))

	for _, f := range fields {
		params, results := m.SignatureParams(f.Point.Signature(), f.Point.ParamNames()...)
		points = append(points, m.NotificationPoint{
			Owner:     owner.Name(),
			Name:      f.Point.Name(),
			Params:    params,
			Results:   results,
			Signature: f.Point.Signature(),
		})
	}

	return points, nil
}

func packageName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return ""
	}

	name, _, found := strings.Cut(t.String(), ".")
	if !found {
		return ""
	}

	return strings.TrimLeft(name, "*[]")
}

// Catalog maps import paths to the dependencies that satisfy them. Standard
// library imports never need an entry.
type Catalog struct {
	deps map[string]m.Dependency
}

// NewCatalog constructs a Catalog holding deps.
func NewCatalog(deps ...m.Dependency) *Catalog {
	c := &Catalog{deps: make(map[string]m.Dependency)}
	for _, dep := range deps {
		c.Register(dep)
	}

	return c
}

// Register adds dep, merging its symbols into an existing entry for the
// same path.
func (c *Catalog) Register(dep m.Dependency) {
	existing, ok := c.deps[dep.Path]
	if !ok {
		symbols := make(map[string]reflect.Value, len(dep.Symbols))
		for k, v := range dep.Symbols {
			symbols[k] = v
		}

		dep.Symbols = symbols
		c.deps[dep.Path] = dep

		return
	}

	for k, v := range dep.Symbols {
		existing.Symbols[k] = v
	}

	existing.Requires = append(existing.Requires, dep.Requires...)
	c.deps[dep.Path] = existing
}

// RegisterTypes registers every named non-stdlib type reachable from types
// as a symbol of its package.
func (c *Catalog) RegisterTypes(types ...reflect.Type) {
	for _, t := range types {
		for _, named := range namedTypes(t) {
			if isStdlib(named.PkgPath()) {
				continue
			}

			c.Register(m.Dependency{
				Path: named.PkgPath(),
				Name: packageName(named),
				Symbols: map[string]reflect.Value{
					named.Name(): reflect.Zero(reflect.PointerTo(named)),
				},
			})
		}
	}
}

// Resolve returns the dependencies satisfying imports, sorted by path.
func (c *Catalog) Resolve(imports []string) ([]m.Dependency, error) {
	var deps []m.Dependency

	for _, path := range imports {
		if isStdlib(path) {
			continue
		}

		dep, ok := c.deps[path]
		if !ok {
			return nil, fmt.Errorf("%w: no dependency registered for import %q", m.ErrInvalidConfiguration, path)
		}

		deps = append(deps, dep)
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].Path < deps[j].Path })

	return deps, nil
}

func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func namedTypes(t reflect.Type) []reflect.Type {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return nil
		}

		return []reflect.Type{t}
	}

	var found []reflect.Type

	//nolint:exhaustive // Only composite kinds reference other types.
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		found = namedTypes(t.Elem())
	case reflect.Map:
		found = append(namedTypes(t.Key()), namedTypes(t.Elem())...)
	case reflect.Func:
		for i := range t.NumIn() {
			found = append(found, namedTypes(t.In(i))...)
		}

		for i := range t.NumOut() {
			found = append(found, namedTypes(t.Out(i))...)
		}
	}

	return found
}
