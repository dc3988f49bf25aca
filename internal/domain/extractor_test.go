package domain

import (
	"errors"
	"testing"

	m "weave.dev/pkg/weave/internal/model"
)

func TestExtractKey(t *testing.T) {
	tests := []struct {
		name     string
		category m.Category
		fragment string
		want     m.MemberKey
	}{
		{"field", m.CategoryField, "x int", m.MemberKey{Name: "x"}},
		{"embedded pointer field", m.CategoryField, "*sync.Mutex", m.MemberKey{Name: "Mutex"}},
		{"field with tag", m.CategoryField, "Name string `json:\"name\"`", m.MemberKey{Name: "Name"}},
		{"field with doc comment", m.CategoryField, "// count of items\ncount int", m.MemberKey{Name: "count"}},
		{"constructor", m.CategoryConstructor, "func NewWoven(x int) *Woven {\n\treturn &Woven{x: x}\n}", m.MemberKey{Name: "NewWoven"}},
		{"property", m.CategoryProperty, "func (w *Woven) X() int { return w.x }", m.MemberKey{Name: "X"}},
		{"notification", m.CategoryNotification, "func (w *Woven) Changed() *notify.Point { return w.changed }", m.MemberKey{Name: "Changed"}},
		{
			"method with params",
			m.CategoryMethod,
			"func (w *Woven) Sum(a int,\n\tb int) int {\n\treturn a + b\n}",
			m.MemberKey{Name: "Sum", Discriminator: "int, int"},
		},
		{
			"method with func param",
			m.CategoryMethod,
			"func (w *Woven) Apply(fn func(int) int) int { return fn(w.x) }",
			m.MemberKey{Name: "Apply", Discriminator: "func(int) int"},
		},
		{
			"method with grouped and variadic params",
			m.CategoryMethod,
			"func (w *Woven) Join(sep, prefix string, parts ...string) string { return prefix }",
			m.MemberKey{Name: "Join", Discriminator: "string, string, ...string"},
		},
		{"package func", m.CategoryMethod, "func Helper() {}", m.MemberKey{Name: "Helper"}},
		{"generic func", m.CategoryMethod, "func Map[T any](in []T) []T { return in }", m.MemberKey{Name: "Map", Discriminator: "[]T"}},
		{"nested struct", m.CategoryNestedType, "type Point struct {\n\tX, Y int\n}", m.MemberKey{Name: "Point", Discriminator: "struct"}},
		{"nested interface", m.CategoryNestedType, "type Shape interface{ Area() float64 }", m.MemberKey{Name: "Shape", Discriminator: "interface"}},
		{"nested func type", m.CategoryNestedType, "type Visitor func(int)", m.MemberKey{Name: "Visitor", Discriminator: "func"}},
		{"defined type", m.CategoryNestedType, "type Color int", m.MemberKey{Name: "Color", Discriminator: "type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractKey(tt.fragment, tt.category); got != tt.want {
				t.Fatalf("ExtractKey() = %+v, want %+v", got, tt.want)
			}

			if got := ExtractName(tt.fragment, tt.category); got != tt.want.Name {
				t.Fatalf("ExtractName() = %q, want %q", got, tt.want.Name)
			}
		})
	}
}

func TestExtractKey_NoMatch(t *testing.T) {
	cases := map[m.Category]string{
		m.CategoryField:       "// only a comment",
		m.CategoryMethod:      "return 42",
		m.CategoryConstructor: "var x = 1",
		m.CategoryNestedType:  "func notAType() {}",
	}

	for category, fragment := range cases {
		if got := ExtractName(fragment, category); got != "" {
			t.Fatalf("ExtractName(%q, %s) = %q, want empty", fragment, category, got)
		}

		if _, err := extractKey(fragment, category); !errors.Is(err, m.ErrExtractionFailure) {
			t.Fatalf("extractKey(%q, %s) error = %v, want ErrExtractionFailure", fragment, category, err)
		}
	}
}

func TestExtractKey_SameIdentifierCollides(t *testing.T) {
	first := ExtractKey("func (w *Woven) Get() int { return 1 }", m.CategoryProperty)
	second := ExtractKey("func (w *Woven) Get() int {\n\treturn 2\n}", m.CategoryProperty)

	if first != second {
		t.Fatalf("keys differ: %+v vs %+v", first, second)
	}
}
