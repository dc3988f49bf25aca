// Package notify provides typed notification points: event-like extension
// points a type exposes as fields, to which callables can be attached at run
// time without the type knowing about them.
package notify

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Errors returned by Point operations.
var (
	ErrSignatureMismatch = errors.New("callable does not match point signature")
	ErrArgumentMismatch  = errors.New("arguments do not match point signature")
	ErrUnknownHandle     = errors.New("unknown handle")
)

// Handle identifies one attached callable. Handles are unique across all
// points of the process, so a handle only ever removes its own listener.
type Handle uint64

var lastHandle atomic.Uint64

type listener struct {
	handle Handle
	fn     reflect.Value
}

// Point is a notification point with a fixed func signature. It is safe for
// concurrent use.
type Point struct {
	name       string
	signature  reflect.Type
	paramNames []string

	mu        sync.RWMutex
	listeners []listener
}

// New creates a point whose invocation signature is F, which must be a func
// type. It panics otherwise, like reflect does for kind mismatches.
func New[F any](name string, paramNames ...string) *Point {
	p, err := NewPoint(name, reflect.TypeFor[F](), paramNames...)
	if err != nil {
		panic(err)
	}

	return p
}

// NewPoint creates a point with the given func signature.
func NewPoint(name string, signature reflect.Type, paramNames ...string) (*Point, error) {
	if signature == nil || signature.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %v is not a func type", ErrSignatureMismatch, signature)
	}

	return &Point{
		name:       name,
		signature:  signature,
		paramNames: append([]string(nil), paramNames...),
	}, nil
}

// Name returns the point name.
func (p *Point) Name() string {
	return p.name
}

// Signature returns the func type listeners must have.
func (p *Point) Signature() reflect.Type {
	return p.signature
}

// ParamNames returns the declared parameter names, possibly fewer than the
// signature has.
func (p *Point) ParamNames() []string {
	return append([]string(nil), p.paramNames...)
}

// Add attaches fn, a func value or a reflect.Value holding one. Values of a
// convertible func type are converted to the point signature.
func (p *Point) Add(fn any) (Handle, error) {
	value, ok := fn.(reflect.Value)
	if !ok {
		value = reflect.ValueOf(fn)
	}

	if !value.IsValid() || value.Kind() != reflect.Func || value.IsNil() {
		return 0, fmt.Errorf("%w: %s wants %v, got %T", ErrSignatureMismatch, p.name, p.signature, fn)
	}

	if value.Type() != p.signature {
		if !value.Type().ConvertibleTo(p.signature) {
			return 0, fmt.Errorf("%w: %s wants %v, got %v", ErrSignatureMismatch, p.name, p.signature, value.Type())
		}

		value = value.Convert(p.signature)
	}

	h := Handle(lastHandle.Add(1))

	p.mu.Lock()
	defer p.mu.Unlock()

	p.listeners = append(p.listeners, listener{handle: h, fn: value})

	return h, nil
}

// Remove detaches the callable registered under h.
func (p *Point) Remove(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, l := range p.listeners {
		if l.handle == h {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("%w: %d on %s", ErrUnknownHandle, h, p.name)
}

// Has reports whether h is attached.
func (p *Point) Has(h Handle) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, l := range p.listeners {
		if l.handle == h {
			return true
		}
	}

	return false
}

// Len returns the number of attached callables.
func (p *Point) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.listeners)
}

// Fire invokes every attached callable in attachment order and returns the
// results of the last one. Nil arguments stand for the zero value of their
// parameter.
func (p *Point) Fire(args ...any) ([]any, error) {
	in, err := p.arguments(args)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	snapshot := append([]listener(nil), p.listeners...)
	p.mu.RUnlock()

	var out []reflect.Value
	for _, l := range snapshot {
		out = l.fn.Call(in)
	}

	results := make([]any, 0, len(out))
	for _, v := range out {
		results = append(results, v.Interface())
	}

	return results, nil
}

func (p *Point) arguments(args []any) ([]reflect.Value, error) {
	numIn := p.signature.NumIn()
	variadic := p.signature.IsVariadic()

	if (!variadic && len(args) != numIn) || (variadic && len(args) < numIn-1) {
		return nil, fmt.Errorf("%w: %s wants %d argument(s), got %d", ErrArgumentMismatch, p.name, numIn, len(args))
	}

	in := make([]reflect.Value, 0, len(args))

	for i, arg := range args {
		want := p.paramType(i)

		if arg == nil {
			in = append(in, reflect.Zero(want))
			continue
		}

		value := reflect.ValueOf(arg)
		if !value.Type().AssignableTo(want) {
			return nil, fmt.Errorf("%w: %s argument %d wants %v, got %v", ErrArgumentMismatch, p.name, i, want, value.Type())
		}

		in = append(in, value)
	}

	return in, nil
}

func (p *Point) paramType(i int) reflect.Type {
	last := p.signature.NumIn() - 1
	if p.signature.IsVariadic() && i >= last {
		return p.signature.In(last).Elem()
	}

	return p.signature.In(i)
}
