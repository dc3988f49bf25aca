package domain

import (
	"fmt"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
)

// MethodBuilder renders operations as Go function declarations. The zero
// value renders a package-level function named after the operation with
// the access level derived from its visibility.
type MethodBuilder struct {
	// Access overrides the access level derived from the operation.
	Access *m.AccessLevel
	// Static renders a package-level function even when Receiver is set.
	Static bool
	// VirtualState adds a doc line marking the function as overridable or
	// overriding.
	VirtualState m.VirtualState
	// Name overrides the operation name.
	Name string
	// Receiver is the receiver clause without parentheses, e.g. "s *Sub".
	Receiver string
	// IndentLevel is the number of tabs prefixed to every line.
	IndentLevel int
}

// Signature renders "Name(params) results". Void operations render no
// result list.
func (b *MethodBuilder) Signature(op m.Operation) string {
	name := op.Name
	if b.Name != "" {
		name = b.Name
	}

	return signature(name, op)
}

func signature(name string, op m.Operation) string {
	sig := fmt.Sprintf("%s(%s)", name, op.ParamList())
	if results := op.ResultList(); results != "" {
		sig += " " + results
	}

	return sig
}

// AccessFor maps visibility flags to an access level. When several flags are
// set the first of Internal, Protected, ProtectedOrInternal, Private, Public
// wins.
func AccessFor(op m.Operation) (*m.AccessLevel, error) {
	precedence := []struct {
		flag  m.Visibility
		level *m.AccessLevel
	}{
		{m.VisInternal, m.Internal},
		{m.VisProtected, m.Protected},
		{m.VisProtectedOrInternal, m.ProtectedOrInternal},
		{m.VisPrivate, m.Private},
		{m.VisPublic, m.Public},
	}

	for _, p := range precedence {
		if op.Visibility.Has(p.flag) {
			return p.level, nil
		}
	}

	return nil, fmt.Errorf("%w: %s has no accessibility", m.ErrInvalidConfiguration, op.Name)
}

// Build renders op as a function declaration wrapping body, which is placed
// one indentation level deeper than the declaration.
func (b *MethodBuilder) Build(op m.Operation, body string) (string, error) {
	if b.IndentLevel < 0 {
		return "", fmt.Errorf("%w: negative indent level %d", m.ErrInvalidConfiguration, b.IndentLevel)
	}

	access := b.Access
	if access == nil {
		var err error

		access, err = AccessFor(op)
		if err != nil {
			return "", err
		}
	}

	name := op.Name
	if b.Name != "" {
		name = b.Name
	}

	name = access.Ident(name)
	indent := strings.Repeat("\t", b.IndentLevel)

	var out strings.Builder

	switch b.VirtualState {
	case m.VirtualVirtual:
		fmt.Fprintf(&out, "%s// %s can be overridden by embedding types.\n", indent, name)
	case m.VirtualOverride:
		if op.Owner != "" {
			fmt.Fprintf(&out, "%s// %s overrides %s.%s.\n", indent, name, op.Owner, op.Name)
		} else {
			fmt.Fprintf(&out, "%s// %s overrides the embedded %s.\n", indent, name, op.Name)
		}
	case m.VirtualNone:
	}

	out.WriteString(indent + "func ")

	if !b.Static && b.Receiver != "" {
		out.WriteString("(" + b.Receiver + ") ")
	}

	out.WriteString(signature(name, op) + " {\n")

	bodyIndent := indent + "\t"

	if trimmed := strings.Trim(body, "\n"); trimmed != "" {
		for _, line := range strings.Split(trimmed, "\n") {
			if strings.TrimSpace(line) == "" {
				out.WriteString("\n")
				continue
			}

			out.WriteString(bodyIndent + line + "\n")
		}
	}

	out.WriteString(indent + "}")

	return out.String(), nil
}
