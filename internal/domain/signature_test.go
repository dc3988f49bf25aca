package domain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	m "weave.dev/pkg/weave/internal/model"
)

func intParam(name string) m.Param {
	return m.Param{Name: name, Type: m.TypeRef{Expr: "int", Kind: reflect.Int}}
}

func TestMethodBuilder_Signature(t *testing.T) {
	b := &MethodBuilder{}

	void := m.Operation{Name: "Reset", Visibility: m.VisPublic}
	if got := b.Signature(void); got != "Reset()" {
		t.Fatalf("Signature(void) = %q", got)
	}

	sum := m.Operation{
		Name:       "Sum",
		Params:     []m.Param{intParam("a"), {Name: "rest", Type: m.TypeRef{Expr: "[]int", Kind: reflect.Slice}, Variadic: true}},
		Results:    []m.Param{{Type: m.TypeRef{Expr: "int", Kind: reflect.Int}}},
		Visibility: m.VisPublic,
	}
	if got := b.Signature(sum); got != "Sum(a int, rest ...int) int" {
		t.Fatalf("Signature(sum) = %q", got)
	}

	pair := m.Operation{
		Name: "Pair",
		Results: []m.Param{
			{Type: m.TypeRef{Expr: "string", Kind: reflect.String}},
			{Type: m.TypeRef{Expr: "error", Kind: reflect.Interface}},
		},
	}
	if got := (&MethodBuilder{Name: "Both"}).Signature(pair); got != "Both() (string, error)" {
		t.Fatalf("Signature(pair) = %q", got)
	}
}

func TestAccessFor(t *testing.T) {
	tests := []struct {
		name       string
		visibility m.Visibility
		want       *m.AccessLevel
	}{
		{"public", m.VisPublic, m.Public},
		{"private", m.VisPrivate, m.Private},
		{"protected", m.VisProtected, m.Protected},
		{"protected internal", m.VisProtectedOrInternal, m.ProtectedOrInternal},
		{"internal wins over public", m.VisInternal | m.VisPublic, m.Internal},
		{"protected wins over private", m.VisProtected | m.VisPrivate, m.Protected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccessFor(m.Operation{Name: "Op", Visibility: tt.visibility})
			if err != nil {
				t.Fatalf("AccessFor() error = %v", err)
			}

			if got != tt.want {
				t.Fatalf("AccessFor() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := AccessFor(m.Operation{Name: "Op"}); !errors.Is(err, m.ErrInvalidConfiguration) {
		t.Fatalf("AccessFor(no flags) error = %v", err)
	}
}

func TestMethodBuilder_Build(t *testing.T) {
	op := m.Operation{
		Name:       "Area",
		Owner:      "Shape",
		Params:     []m.Param{intParam("scale")},
		Results:    []m.Param{{Type: m.TypeRef{Expr: "int", Kind: reflect.Int}}},
		Visibility: m.VisPublic,
	}

	t.Run("override method", func(t *testing.T) {
		b := &MethodBuilder{VirtualState: m.VirtualOverride, Receiver: "s *Square"}

		got, err := b.Build(op, "x := scale * 2\n\nreturn x")
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		want := "// Area overrides Shape.Area.\nfunc (s *Square) Area(scale int) int {\n\tx := scale * 2\n\n\treturn x\n}"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Build() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("static with access and indent", func(t *testing.T) {
		b := &MethodBuilder{Access: m.Private, Static: true, Receiver: "ignored *T", IndentLevel: 1, VirtualState: m.VirtualVirtual}

		got, err := b.Build(op, "return scale")
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		want := "\t// area can be overridden by embedding types.\n\tfunc area(scale int) int {\n\t\treturn scale\n\t}"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Build() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		got, err := (&MethodBuilder{Name: "noop"}).Build(m.Operation{Name: "x", Visibility: m.VisPublic}, "")
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		if got != "func Noop() {\n}" {
			t.Fatalf("Build() = %q", got)
		}
	})

	t.Run("negative indent", func(t *testing.T) {
		if _, err := (&MethodBuilder{IndentLevel: -1}).Build(op, ""); !errors.Is(err, m.ErrInvalidConfiguration) {
			t.Fatalf("Build() error = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("no accessibility", func(t *testing.T) {
		if _, err := (&MethodBuilder{}).Build(m.Operation{Name: "x"}, ""); !errors.Is(err, m.ErrInvalidConfiguration) {
			t.Fatalf("Build() error = %v, want ErrInvalidConfiguration", err)
		}
	})
}
