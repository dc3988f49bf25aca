package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/notify"
)

// Attacher hooks arbitrary callables into the notification points of live
// objects without generating source.
type Attacher interface {
	// Attach adapts behavior to the signature of target's point and
	// registers it there. behavior takes either no parameters or the point's
	// parameters.
	Attach(target any, pointName string, behavior any) (m.BehaviorBinding, error)

	// Detach removes a binding returned by Attach.
	Detach(target any, pointName string, binding m.BehaviorBinding) error
}

type attacher struct {
	emitter adapter.Emitter
}

// NewAttacher constructs an Attacher emitting adapters with emitter.
func NewAttacher(emitter adapter.Emitter) Attacher {
	return &attacher{emitter: emitter}
}

func (a *attacher) Attach(target any, pointName string, behavior any) (m.BehaviorBinding, error) {
	if isNil(target) {
		return m.BehaviorBinding{}, fmt.Errorf("%w: target", m.ErrNullArgument)
	}

	if isNil(behavior) {
		return m.BehaviorBinding{}, fmt.Errorf("%w: behavior", m.ErrNullArgument)
	}

	point, err := lookupPoint(target, pointName)
	if err != nil {
		return m.BehaviorBinding{}, err
	}

	behaviorValue := reflect.ValueOf(behavior)

	adapterType, err := a.emitter.DefineAdapter(behaviorValue.Type(), point.Signature())
	if err != nil {
		return m.BehaviorBinding{}, fmt.Errorf("failed to adapt behavior to %s: %w", pointName, err)
	}

	instance, err := adapterType.Instantiate(behaviorValue)
	if err != nil {
		return m.BehaviorBinding{}, err
	}

	callable, err := adapterType.Bind(instance)
	if err != nil {
		return m.BehaviorBinding{}, err
	}

	handle, err := point.Add(callable)
	if err != nil {
		return m.BehaviorBinding{}, fmt.Errorf("failed to attach to %s: %w", pointName, err)
	}

	slog.Debug("attached behavior", "point", point.Name(), "handle", handle, "behavior", behaviorValue.Type().String())

	return m.BehaviorBinding{Point: point.Name(), Handle: handle, Callable: callable}, nil
}

func (a *attacher) Detach(target any, pointName string, binding m.BehaviorBinding) error {
	if isNil(target) {
		return fmt.Errorf("%w: target", m.ErrNullArgument)
	}

	point, err := lookupPoint(target, pointName)
	if err != nil {
		return err
	}

	if binding.Point != "" && binding.Point != point.Name() {
		return fmt.Errorf("%w: binding belongs to %s, not %s", m.ErrBindingNotFound, binding.Point, point.Name())
	}

	if err := point.Remove(binding.Handle); err != nil {
		if errors.Is(err, notify.ErrUnknownHandle) {
			return fmt.Errorf("%w: %w", m.ErrBindingNotFound, err)
		}

		return err
	}

	slog.Debug("detached behavior", "point", point.Name(), "handle", binding.Handle)

	return nil
}

func lookupPoint(target any, name string) (*notify.Point, error) {
	point, ok := notify.Lookup(target, name)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no notification point %q", m.ErrBindingNotFound, target, name)
	}

	return point, nil
}

//nolint:exhaustive // Only nillable kinds matter.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}

	return false
}
