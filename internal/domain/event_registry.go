package domain

import (
	"context"
	"fmt"
	"log/slog"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/notify"
)

// Handler is a registered notification handler.
type Handler struct {
	Point m.NotificationPoint
	Name  string
	Text  string
}

// EventRegistry collects source-level handlers for notification points and
// installs all of them with a single compilation.
type EventRegistry interface {
	// Register renders a public package-level handler for point. An empty
	// handlerName defaults to "On<Point>". A point takes one handler.
	Register(point m.NotificationPoint, handlerName, body string) error

	// Handlers lists the registered handlers in registration order.
	Handlers() []Handler

	// Apply compiles every handler in one unit and adds each to the matching
	// live point of target.
	Apply(ctx context.Context, target any) ([]m.BehaviorBinding, error)
}

type eventRegistry struct {
	bridge   adapter.Bridge
	catalog  *adapter.Catalog
	options  []AssemblerOption
	handlers []Handler
	points   map[string]struct{}
	names    map[string]struct{}
}

// NewEventRegistry constructs an EventRegistry compiling through bridge.
// Non-stdlib types in point signatures are resolved through catalog; opts
// configure the handler unit.
func NewEventRegistry(bridge adapter.Bridge, catalog *adapter.Catalog, opts ...AssemblerOption) EventRegistry {
	if catalog == nil {
		catalog = adapter.NewCatalog()
	}

	return &eventRegistry{
		bridge:  bridge,
		catalog: catalog,
		options: append([]AssemblerOption{WithPackage("handlers"), WithTypeName("Handlers")}, opts...),
		points:  make(map[string]struct{}),
		names:   make(map[string]struct{}),
	}
}

func (r *eventRegistry) Register(point m.NotificationPoint, handlerName, body string) error {
	if point.Name == "" {
		return fmt.Errorf("%w: notification point", m.ErrNullArgument)
	}

	if _, ok := r.points[point.Key()]; ok {
		return fmt.Errorf("%w: %s already has a handler", m.ErrDuplicateBinding, point.Key())
	}

	if handlerName == "" {
		handlerName = "On" + point.Name
	}

	handlerName = m.Public.Ident(handlerName)
	if _, ok := r.names[handlerName]; ok {
		return fmt.Errorf("%w: handler %s", m.ErrDuplicateMember, handlerName)
	}

	builder := &MethodBuilder{Access: m.Public, Static: true, Name: handlerName}

	text, err := builder.Build(point.Invocation(), body)
	if err != nil {
		return err
	}

	r.points[point.Key()] = struct{}{}
	r.names[handlerName] = struct{}{}
	r.handlers = append(r.handlers, Handler{Point: point, Name: handlerName, Text: text})

	return nil
}

func (r *eventRegistry) Handlers() []Handler {
	return append([]Handler(nil), r.handlers...)
}

func (r *eventRegistry) Apply(ctx context.Context, target any) ([]m.BehaviorBinding, error) {
	if isNil(target) {
		return nil, fmt.Errorf("%w: target", m.ErrNullArgument)
	}

	if len(r.handlers) == 0 {
		return nil, nil
	}

	live := make([]*notify.Point, len(r.handlers))
	for i, h := range r.handlers {
		point, err := lookupPoint(target, h.Point.Name)
		if err != nil {
			return nil, err
		}

		live[i] = point
	}

	asm, err := r.assemble(live)
	if err != nil {
		return nil, err
	}

	generated, err := asm.Compile(ctx)
	if err != nil {
		return nil, err
	}

	bindings := make([]m.BehaviorBinding, 0, len(r.handlers))

	for i, h := range r.handlers {
		fn, err := generated.Artifact.Lookup(h.Name)
		if err != nil {
			r.rollback(live, bindings)
			return nil, err
		}

		handle, err := live[i].Add(fn)
		if err != nil {
			r.rollback(live, bindings)
			return nil, fmt.Errorf("failed to add handler %s: %w", h.Name, err)
		}

		bindings = append(bindings, m.BehaviorBinding{Point: live[i].Name(), Handle: handle, Callable: fn})
	}

	slog.Debug("applied handlers", "unit", asm.ImportPath(), "handlers", len(bindings))

	return bindings, nil
}

func (r *eventRegistry) assemble(live []*notify.Point) (*Assembler, error) {
	asm := NewAssembler(r.bridge, r.options...)

	for i, h := range r.handlers {
		if err := asm.AddMember(m.CategoryMethod, m.MemberKey{Name: h.Name}, h.Text); err != nil {
			return nil, err
		}

		imports := h.Point.Invocation().Imports()
		asm.AddImport(imports...)

		r.catalog.RegisterTypes(live[i].Signature())

		deps, err := r.catalog.Resolve(imports)
		if err != nil {
			return nil, err
		}

		for _, dep := range deps {
			asm.AddDependency(dep)
		}
	}

	return asm, nil
}

func (r *eventRegistry) rollback(live []*notify.Point, bindings []m.BehaviorBinding) {
	for i, b := range bindings {
		if err := live[i].Remove(b.Handle); err != nil {
			slog.Warn("failed to roll back handler", "point", b.Point, "error", err)
		}
	}
}
