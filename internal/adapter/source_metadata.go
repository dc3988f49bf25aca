package adapter

import (
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"reflect"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
)

// FinalDirective marks a type or method in base sources as closed for
// overriding.
const FinalDirective = "//weave:final"

// SourceMetadata describes types declared in Go source files, the way a
// base type is known before anything is loaded.
type SourceMetadata interface {
	// Parse builds an AST using the provided file set and source bytes.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// DescribeFile reads path and describes typeName declared in it.
	DescribeFile(path m.Path, typeName string) (m.TypeDescriptor, error)

	// DescribeSource describes typeName declared in src.
	DescribeSource(filename string, src []byte, typeName string) (m.TypeDescriptor, error)
}

// LocalSourceMetadata provides a concrete SourceMetadata backed by
// go/parser and go/doc.
type LocalSourceMetadata struct {
	store SourceStore
}

// NewLocalSourceMetadata constructs a LocalSourceMetadata reading through store.
func NewLocalSourceMetadata(store SourceStore) *LocalSourceMetadata {
	return &LocalSourceMetadata{store: store}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalSourceMetadata) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// DescribeFile implements SourceMetadata.
func (a *LocalSourceMetadata) DescribeFile(path m.Path, typeName string) (m.TypeDescriptor, error) {
	src, err := a.store.ReadFile(path)
	if err != nil {
		slog.Error("failed to read base source", "path", path, "error", err)
		return m.TypeDescriptor{}, fmt.Errorf("failed to read base source %s: %w", path, err)
	}

	return a.DescribeSource(string(path), src, typeName)
}

// DescribeSource implements SourceMetadata. Functions returning the type are
// reported as static operations, methods as virtual ones.
func (a *LocalSourceMetadata) DescribeSource(filename string, src []byte, typeName string) (m.TypeDescriptor, error) {
	fset := token.NewFileSet()

	file, err := a.Parse(fset, filename, src)
	if err != nil {
		slog.Error("failed to parse base source", "file", filename, "error", err)
		return m.TypeDescriptor{}, fmt.Errorf("%w: %s: %w", m.ErrInvalidBaseType, filename, err)
	}

	pkg, err := doc.NewFromFiles(fset, []*ast.File{file}, "", doc.AllDecls|doc.PreserveAST)
	if err != nil {
		return m.TypeDescriptor{}, fmt.Errorf("%w: %s: %w", m.ErrInvalidBaseType, filename, err)
	}

	for _, t := range pkg.Types {
		if t.Name == typeName {
			return describeDocType(pkg.Name, t), nil
		}
	}

	return m.TypeDescriptor{}, fmt.Errorf("%w: no type %s in %s", m.ErrInvalidBaseType, typeName, filename)
}

func describeDocType(pkgName string, t *doc.Type) m.TypeDescriptor {
	spec := typeSpec(t)

	desc := m.TypeDescriptor{
		PkgName:  pkgName,
		Name:     t.Name,
		Exported: ast.IsExported(t.Name),
		Final:    hasDirective(t.Decl.Doc) || (spec != nil && hasDirective(spec.Doc)),
	}

	if spec != nil {
		switch spec.Type.(type) {
		case *ast.StructType:
			desc.Kind = m.KindStruct
		case *ast.InterfaceType:
			desc.Kind = m.KindInterface
		}
	}

	for _, fn := range t.Funcs {
		op := funcOperation(t.Name, fn.Decl)
		op.Static = true
		desc.Operations = append(desc.Operations, op)
	}

	for _, fn := range t.Methods {
		op := funcOperation(t.Name, fn.Decl)
		op.Virtual = true
		op.Final = hasDirective(fn.Decl.Doc)
		desc.Operations = append(desc.Operations, op)
	}

	return desc
}

func typeSpec(t *doc.Type) *ast.TypeSpec {
	for _, spec := range t.Decl.Specs {
		if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name.Name == t.Name {
			return ts
		}
	}

	return nil
}

func hasDirective(group *ast.CommentGroup) bool {
	if group == nil {
		return false
	}

	for _, c := range group.List {
		if strings.TrimSpace(c.Text) == FinalDirective {
			return true
		}
	}

	return false
}

func funcOperation(owner string, decl *ast.FuncDecl) m.Operation {
	name := decl.Name.Name

	visibility := m.VisInternal
	if ast.IsExported(name) {
		visibility = m.VisPublic
	}

	return m.Operation{
		Name:        name,
		Owner:       owner,
		Params:      fieldParams(decl.Type.Params, "arg"),
		Results:     fieldParams(decl.Type.Results, ""),
		Visibility:  visibility,
		SpecialName: name == "_" || name == "init" || strings.HasPrefix(name, "__"),
	}
}

func fieldParams(list *ast.FieldList, prefix string) []m.Param {
	if list == nil {
		return nil
	}

	var params []m.Param

	for _, field := range list.List {
		ref, variadic := exprTypeRef(field.Type)

		if len(field.Names) == 0 {
			name := ""
			if prefix != "" {
				name = fmt.Sprintf("%s%d", prefix, len(params))
			}

			params = append(params, m.Param{Name: name, Type: ref, Variadic: variadic})

			continue
		}

		for _, ident := range field.Names {
			name := ident.Name
			if name == "_" && prefix != "" {
				name = fmt.Sprintf("%s%d", prefix, len(params))
			}

			params = append(params, m.Param{Name: name, Type: ref, Variadic: variadic})
		}
	}

	return params
}

var builtinKinds = map[string]reflect.Kind{
	"bool": reflect.Bool, "string": reflect.String,
	"int": reflect.Int, "int8": reflect.Int8, "int16": reflect.Int16, "int32": reflect.Int32, "int64": reflect.Int64,
	"uint": reflect.Uint, "uint8": reflect.Uint8, "uint16": reflect.Uint16, "uint32": reflect.Uint32, "uint64": reflect.Uint64,
	"uintptr": reflect.Uintptr, "byte": reflect.Uint8, "rune": reflect.Int32,
	"float32": reflect.Float32, "float64": reflect.Float64,
	"complex64": reflect.Complex64, "complex128": reflect.Complex128,
	"error": reflect.Interface, "any": reflect.Interface,
}

// exprTypeRef maps a type expression to a TypeRef. A variadic parameter is
// reported with its slice type.
func exprTypeRef(expr ast.Expr) (m.TypeRef, bool) {
	if ellipsis, ok := expr.(*ast.Ellipsis); ok {
		return m.TypeRef{Expr: "[]" + types.ExprString(ellipsis.Elt), Kind: reflect.Slice}, true
	}

	return m.TypeRef{Expr: types.ExprString(expr), Kind: exprKind(expr)}, false
}

func exprKind(expr ast.Expr) reflect.Kind {
	switch e := expr.(type) {
	case *ast.Ident:
		return builtinKinds[e.Name]
	case *ast.StarExpr:
		return reflect.Pointer
	case *ast.ArrayType:
		if e.Len == nil {
			return reflect.Slice
		}

		return reflect.Array
	case *ast.MapType:
		return reflect.Map
	case *ast.FuncType:
		return reflect.Func
	case *ast.ChanType:
		return reflect.Chan
	case *ast.InterfaceType:
		return reflect.Interface
	case *ast.ParenExpr:
		return exprKind(e.X)
	}

	return reflect.Invalid
}
