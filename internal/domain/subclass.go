package domain

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
)

// SubclassReceiver is the receiver name of generated overrides.
const SubclassReceiver = "s"

// Subclass is an Assembler whose type embeds an existing base type and
// shadows selected base methods with generated overrides.
type Subclass struct {
	*Assembler

	base m.TypeDescriptor
}

// NewSubclass validates base and returns a subclass assembler named
// "<Base>Subclass". A base parsed from source keeps its own package so the
// subclass can be compiled next to it.
func NewSubclass(bridge adapter.Bridge, base m.TypeDescriptor, opts ...AssemblerOption) (*Subclass, error) {
	if err := ValidateBase(base); err != nil {
		return nil, err
	}

	defaults := []AssemblerOption{WithTypeName(base.Name + "Subclass")}
	if base.PkgPath == "" && base.PkgName != "" {
		defaults = append(defaults, WithPackage(base.PkgName))
	}

	s := &Subclass{
		Assembler: NewAssembler(bridge, append(defaults, opts...)...),
		base:      base,
	}
	s.SetBaseType(base)

	return s, nil
}

// ValidateBase fails with model.ErrInvalidBaseType unless base is an
// exported, non-final struct type.
func ValidateBase(base m.TypeDescriptor) error {
	switch {
	case base.Kind != m.KindStruct:
		return fmt.Errorf("%w: %s is a %s, not a struct", m.ErrInvalidBaseType, base.Name, base.Kind)
	case !base.Exported:
		return fmt.Errorf("%w: %s is not exported", m.ErrInvalidBaseType, base.Name)
	case base.Final:
		return fmt.Errorf("%w: %s is final", m.ErrInvalidBaseType, base.Name)
	}

	return nil
}

// Base returns the base type.
func (s *Subclass) Base() m.TypeDescriptor {
	return s.base
}

// IsOverridable reports whether op can be shadowed by a generated override:
// a virtual instance operation, reachable from the subclass, not final, not
// special-named and not the finalizer.
func IsOverridable(op m.Operation) bool {
	accessible := op.Visibility.Has(m.VisPublic) ||
		op.Visibility.Has(m.VisProtected) ||
		op.Visibility.Has(m.VisProtectedOrInternal)
	finalizer := op.Name == "Finalize" && len(op.Params) == 0

	return op.Virtual && !op.Static && accessible && !op.Final && !op.SpecialName && !finalizer
}

// Overridable yields the overridable operations of the base in descriptor
// order. The sequence is recomputed on every iteration.
func (s *Subclass) Overridable() iter.Seq[m.Operation] {
	return func(yield func(m.Operation) bool) {
		for _, op := range s.base.Operations {
			if !IsOverridable(op) {
				continue
			}

			if !yield(op) {
				return
			}
		}
	}
}

// Override registers an override of op whose body is woven with strategy.
func (s *Subclass) Override(op m.Operation, body string, strategy m.OverrideStrategy) error {
	if !IsOverridable(op) {
		return fmt.Errorf("%w: %s", m.ErrNotOverridable, op)
	}

	woven, err := Weave(op, SubclassReceiver+"."+s.embeddedField(), m.ParseBody(body), strategy)
	if err != nil {
		return err
	}

	builder := &MethodBuilder{
		VirtualState: m.VirtualOverride,
		Receiver:     SubclassReceiver + " *" + s.TypeName(),
	}

	text, err := builder.Build(op, woven)
	if err != nil {
		return err
	}

	key := m.MemberKey{Name: op.Name, Discriminator: op.ParamTypes()}
	if err := s.AddMember(m.CategoryMethod, key, text); err != nil {
		return err
	}

	slog.Debug("registered override", "type", s.TypeName(), "method", op.Name, "strategy", strategy)

	return nil
}

// OverrideByName overrides the first overridable operation named name.
func (s *Subclass) OverrideByName(name, body string, strategy m.OverrideStrategy) error {
	return s.OverrideFunc(name, func(m.Operation) string { return body }, strategy)
}

// OverrideFunc overrides the first overridable operation named name with the
// body render returns for it.
func (s *Subclass) OverrideFunc(name string, render func(m.Operation) string, strategy m.OverrideStrategy) error {
	for op := range s.Overridable() {
		if op.Name == name {
			return s.Override(op, render(op), strategy)
		}
	}

	return fmt.Errorf("%w: %s has no overridable %s", m.ErrNotOverridable, s.base.Name, name)
}

// embeddedField is the field name Go gives the embedded base.
func (s *Subclass) embeddedField() string {
	name := s.base.Name
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		name = name[:idx]
	}

	return name
}

// Weave expands body for op according to strategy. embedded is the selector
// of the embedded base value, e.g. "s.Base".
func Weave(op m.Operation, embedded string, body m.Body, strategy m.OverrideStrategy) (string, error) {
	call := fmt.Sprintf("%s.%s(%s)", embedded, op.Name, op.ArgList())

	switch strategy {
	case m.StrategyNone:
		return body.String(), nil
	case m.StrategyNotReturn:
		return body.Expand(call), nil
	case m.StrategyReturnDefault:
		woven := body.Expand(call)
		if op.IsVoid() {
			return woven, nil
		}

		return appendLine(woven, "return "+op.ZeroResults()), nil
	case m.StrategyAutoReturn:
		if op.IsVoid() {
			return body.Expand(call), nil
		}

		if !body.CallsBase {
			return "", fmt.Errorf("%w: %s returns values but its body has no %s to return from",
				m.ErrInvalidConfiguration, op, m.BasePlaceholder)
		}

		names := resultNames(len(op.Results))

		return appendLine(body.Expand(names+" := "+call), "return "+names), nil
	}

	return "", fmt.Errorf("%w: unknown override strategy %v", m.ErrInvalidConfiguration, strategy)
}

func resultNames(n int) string {
	if n == 1 {
		return "baseResult"
	}

	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("baseResult%d", i)
	}

	return strings.Join(names, ", ")
}

func appendLine(text, line string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return line
	}

	return text + "\n" + line
}
