package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// TypeRef is a printable Go type expression plus what is needed to render
// its zero value and import it.
type TypeRef struct {
	Expr    string
	Kind    reflect.Kind
	Imports []string
}

// TypeRefOf describes a reflected type.
func TypeRefOf(t reflect.Type) TypeRef {
	seen := make(map[string]struct{})
	collectPkgPaths(t, seen)

	imports := make([]string, 0, len(seen))
	for path := range seen {
		imports = append(imports, path)
	}

	sort.Strings(imports)

	return TypeRef{Expr: t.String(), Kind: t.Kind(), Imports: imports}
}

func collectPkgPaths(t reflect.Type, seen map[string]struct{}) {
	if t.Name() != "" {
		if path := t.PkgPath(); path != "" {
			seen[path] = struct{}{}
		}

		return
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		collectPkgPaths(t.Elem(), seen)
	case reflect.Map:
		collectPkgPaths(t.Key(), seen)
		collectPkgPaths(t.Elem(), seen)
	case reflect.Func:
		for i := range t.NumIn() {
			collectPkgPaths(t.In(i), seen)
		}

		for i := range t.NumOut() {
			collectPkgPaths(t.Out(i), seen)
		}
	}
}

// ZeroLiteral returns a Go expression evaluating to the zero value of the type.
//
//nolint:exhaustive // Remaining kinds fall back to *new(T).
func (t TypeRef) ZeroLiteral() string {
	switch t.Kind {
	case reflect.Bool:
		return "false"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return "0"
	case reflect.String:
		return `""`
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan,
		reflect.Interface, reflect.UnsafePointer:
		return "nil"
	case reflect.Struct, reflect.Array:
		return t.Expr + "{}"
	}

	return "*new(" + t.Expr + ")"
}

// Param is one parameter or result of an operation.
type Param struct {
	Name     string
	Type     TypeRef
	Variadic bool
}

func (p Param) typeText() string {
	if p.Variadic {
		return "..." + strings.TrimPrefix(p.Type.Expr, "[]")
	}

	return p.Type.Expr
}

// String renders "name T", or just "T" for an unnamed parameter.
func (p Param) String() string {
	if p.Name == "" {
		return p.typeText()
	}

	return p.Name + " " + p.typeText()
}

// Operation describes a reflected method or function.
type Operation struct {
	Name        string
	Owner       string
	Params      []Param
	Results     []Param
	Visibility  Visibility
	Static      bool
	Virtual     bool
	Final       bool
	SpecialName bool
}

// IsVoid reports whether the operation has no results.
func (o Operation) IsVoid() bool {
	return len(o.Results) == 0
}

// ParamList renders the parameter list without parentheses.
func (o Operation) ParamList() string {
	parts := make([]string, 0, len(o.Params))
	for _, p := range o.Params {
		parts = append(parts, p.String())
	}

	return strings.Join(parts, ", ")
}

// ParamTypes renders the parameter types without names.
func (o Operation) ParamTypes() string {
	parts := make([]string, 0, len(o.Params))
	for _, p := range o.Params {
		parts = append(parts, p.typeText())
	}

	return strings.Join(parts, ", ")
}

// ArgList renders the parameter names as call arguments, expanding a
// variadic tail.
func (o Operation) ArgList() string {
	parts := make([]string, 0, len(o.Params))
	for _, p := range o.Params {
		if p.Variadic {
			parts = append(parts, p.Name+"...")
			continue
		}

		parts = append(parts, p.Name)
	}

	return strings.Join(parts, ", ")
}

// ResultList renders the result list: empty for void, bare for a single
// unnamed result, parenthesized otherwise.
func (o Operation) ResultList() string {
	switch {
	case len(o.Results) == 0:
		return ""
	case len(o.Results) == 1 && o.Results[0].Name == "":
		return o.Results[0].Type.Expr
	}

	parts := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		parts = append(parts, r.String())
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// ZeroResults renders the zero value of every result, comma separated.
func (o Operation) ZeroResults() string {
	parts := make([]string, 0, len(o.Results))
	for _, r := range o.Results {
		parts = append(parts, r.Type.ZeroLiteral())
	}

	return strings.Join(parts, ", ")
}

// Imports returns the sorted import paths referenced by the signature.
func (o Operation) Imports() []string {
	seen := make(map[string]struct{})

	for _, group := range [][]Param{o.Params, o.Results} {
		for _, p := range group {
			for _, path := range p.Type.Imports {
				seen[path] = struct{}{}
			}
		}
	}

	imports := make([]string, 0, len(seen))
	for path := range seen {
		imports = append(imports, path)
	}

	sort.Strings(imports)

	return imports
}

func (o Operation) String() string {
	signature := fmt.Sprintf("%s(%s)", o.Name, o.ParamList())
	if results := o.ResultList(); results != "" {
		signature += " " + results
	}

	if o.Owner != "" {
		return o.Owner + "." + signature
	}

	return signature
}

// TypeKind is the coarse classification of a base type candidate.
type TypeKind int

// Available TypeKind values.
const (
	KindOther TypeKind = iota
	KindStruct
	KindInterface
)

func (k TypeKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindOther:
	}

	return "other"
}

// TypeDescriptor is the metadata of a loaded or parsed type.
type TypeDescriptor struct {
	PkgPath    string
	PkgName    string
	Name       string
	Kind       TypeKind
	Exported   bool
	Final      bool
	Operations []Operation
	Points     []NotificationPoint
}

// QualifiedName returns the type expression as seen from package pkgPath.
// Types parsed from a source file have no package path and are always
// referenced from within their own package.
func (t TypeDescriptor) QualifiedName(pkgPath string) string {
	if t.PkgPath == "" || t.PkgName == "" || t.PkgPath == pkgPath {
		return t.Name
	}

	return t.PkgName + "." + t.Name
}

// NotificationPoint describes an event-like extension point of a type.
type NotificationPoint struct {
	Owner     string
	Name      string
	Params    []Param
	Results   []Param
	Signature reflect.Type
}

// Key is the point identity used for set semantics.
func (p NotificationPoint) Key() string {
	return p.Owner + "." + p.Name
}

// Invocation returns the point's invocation shape as an operation.
func (p NotificationPoint) Invocation() Operation {
	return Operation{
		Name:       p.Name,
		Owner:      p.Owner,
		Params:     p.Params,
		Results:    p.Results,
		Visibility: VisPublic,
	}
}

// SignatureParams turns a func type into named params (arg0, arg1, ...) and
// unnamed results.
func SignatureParams(signature reflect.Type, names ...string) ([]Param, []Param) {
	params := make([]Param, 0, signature.NumIn())
	for i := range signature.NumIn() {
		name := fmt.Sprintf("arg%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}

		params = append(params, Param{
			Name:     name,
			Type:     TypeRefOf(signature.In(i)),
			Variadic: signature.IsVariadic() && i == signature.NumIn()-1,
		})
	}

	results := make([]Param, 0, signature.NumOut())
	for i := range signature.NumOut() {
		results = append(results, Param{Type: TypeRefOf(signature.Out(i))})
	}

	return params, results
}
