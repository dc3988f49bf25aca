package domain

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"regexp"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
)

var (
	fieldNamePattern = regexp.MustCompile(`^\s*\*?(?:\w+\.)?(\w+)`)
	funcNamePattern  = regexp.MustCompile(`func\s*(?:\([^)]*\))?\s*(\w+)\s*(?:\[[^\]]*\])?\s*\(`)
	typeNamePattern  = regexp.MustCompile(`type\s+(\w+)(?:\[[^\]]*\])?\s+(?:=\s*)?(\*?\w+)?`)
)

var typeKindKeywords = map[string]struct{}{
	"struct":    {},
	"interface": {},
	"func":      {},
}

// ExtractName returns the member name declared by fragment, or "" when the
// fragment does not look like a member of the category.
func ExtractName(fragment string, category m.Category) string {
	return ExtractKey(fragment, category).Name
}

// ExtractKey returns the identity of fragment inside its category. Methods
// are discriminated by their parameter types, so renaming a parameter does
// not make a new overload. Nested types are discriminated by their kind
// keyword ("struct", "interface", "func" or "type" for defined types).
func ExtractKey(fragment string, category m.Category) m.MemberKey {
	text := flatten(fragment)

	switch category {
	case m.CategoryField:
		return m.MemberKey{Name: firstGroup(fieldNamePattern, text)}
	case m.CategoryConstructor, m.CategoryProperty, m.CategoryNotification:
		return m.MemberKey{Name: firstGroup(funcNamePattern, text)}
	case m.CategoryMethod:
		loc := funcNamePattern.FindStringSubmatchIndex(text)
		if loc == nil {
			return m.MemberKey{}
		}

		return m.MemberKey{
			Name:          text[loc[2]:loc[3]],
			Discriminator: paramTypes(paramList(text, loc[1]-1)),
		}
	case m.CategoryNestedType:
		match := typeNamePattern.FindStringSubmatch(text)
		if match == nil {
			return m.MemberKey{}
		}

		kind := "type"
		if _, ok := typeKindKeywords[match[2]]; ok {
			kind = match[2]
		}

		return m.MemberKey{Name: match[1], Discriminator: kind}
	}

	return m.MemberKey{}
}

// extractKey is ExtractKey failing fast on an empty name.
func extractKey(fragment string, category m.Category) (m.MemberKey, error) {
	key := ExtractKey(fragment, category)
	if key.Name == "" {
		return key, fmt.Errorf("%w: no %s name in %q", m.ErrExtractionFailure, strings.ToLower(category.Heading()), fragment)
	}

	return key, nil
}

// flatten drops comment lines and joins the rest into one line.
func flatten(fragment string) string {
	lines := strings.Split(strings.ReplaceAll(fragment, "\r", ""), "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, " ")
}

func firstGroup(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}

	return match[1]
}

// paramTypes reduces a parameter list to its comma separated types. A list
// that does not parse is kept as written.
func paramTypes(list string) string {
	expr, err := parser.ParseExpr("func(" + list + ")")
	if err != nil {
		return list
	}

	fn, ok := expr.(*ast.FuncType)
	if !ok {
		return list
	}

	var parts []string

	for _, field := range fn.Params.List {
		typ := types.ExprString(field.Type)
		for range max(len(field.Names), 1) {
			parts = append(parts, typ)
		}
	}

	return strings.Join(parts, ", ")
}

// paramList returns the normalized text between the parenthesis at open and
// its matching close.
func paramList(text string, open int) string {
	depth := 0

	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.Join(strings.Fields(text[open+1:i]), " ")
			}
		}
	}

	return strings.Join(strings.Fields(text[open+1:]), " ")
}
