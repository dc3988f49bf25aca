package domain

import (
	"fmt"
	"sort"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
)

// Registry stores member fragments per category, kept sorted by key so
// rendering does not depend on insertion order. It is not safe for
// concurrent mutation.
type Registry struct {
	members map[m.Category][]m.Fragment
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[m.Category][]m.Fragment)}
}

// Add stores text under key. Keys are unique per category.
func (r *Registry) Add(category m.Category, key m.MemberKey, text string) error {
	if key.Name == "" {
		return fmt.Errorf("%w: empty %s name", m.ErrExtractionFailure, strings.ToLower(category.Heading()))
	}

	fragments := r.members[category]
	idx := sort.Search(len(fragments), func(i int) bool {
		return !fragments[i].Key.Less(key)
	})

	if idx < len(fragments) && fragments[idx].Key == key {
		return fmt.Errorf("%w: %s %s", m.ErrDuplicateMember, strings.ToLower(category.Heading()), key)
	}

	fragments = append(fragments, m.Fragment{})
	copy(fragments[idx+1:], fragments[idx:])
	fragments[idx] = m.Fragment{Category: category, Key: key, Text: text}
	r.members[category] = fragments

	return nil
}

// Has reports whether key is registered in category.
func (r *Registry) Has(category m.Category, key m.MemberKey) bool {
	for _, f := range r.members[category] {
		if f.Key == key {
			return true
		}
	}

	return false
}

// Len returns the number of fragments in category.
func (r *Registry) Len(category m.Category) int {
	return len(r.members[category])
}

// Fragments returns the fragments of category in key order.
func (r *Registry) Fragments(category m.Category) []m.Fragment {
	return append([]m.Fragment(nil), r.members[category]...)
}

// Render renders every non-empty category under its heading, in category
// order, separated by one blank line. Fields render as the declaration of
// typeName, embedding base when it is set. An empty registry renders "".
func (r *Registry) Render(typeName, base string) string {
	regions := make([]string, 0, len(m.Categories()))

	for _, category := range m.Categories() {
		fragments := r.members[category]
		if len(fragments) == 0 {
			continue
		}

		var b strings.Builder

		b.WriteString("// " + category.Heading() + "\n")

		if category == m.CategoryField {
			b.WriteString(structDecl(typeName, base, fragments))
		} else {
			texts := make([]string, 0, len(fragments))
			for _, f := range fragments {
				texts = append(texts, strings.TrimSpace(f.Text))
			}

			b.WriteString(strings.Join(texts, "\n\n"))
			b.WriteString("\n")
		}

		regions = append(regions, b.String())
	}

	return strings.Join(regions, "\n")
}

func structDecl(typeName, base string, fields []m.Fragment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "type %s struct {\n", typeName)

	if base != "" {
		b.WriteString("\t" + base + "\n")
	}

	for _, f := range fields {
		for _, line := range strings.Split(strings.TrimSpace(f.Text), "\n") {
			b.WriteString("\t" + strings.TrimSpace(line) + "\n")
		}
	}

	b.WriteString("}\n")

	return b.String()
}
