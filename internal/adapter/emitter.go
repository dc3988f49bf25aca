package adapter

import (
	"fmt"
	"reflect"

	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/notify"
)

// BehaviorField is the single field of an emitted adapter type.
const BehaviorField = "Behavior"

// Emitter defines types at run time without going through source text.
type Emitter interface {
	// DefineAdapter defines a fresh struct type holding a behavior of type
	// behaviorType, able to forward calls of the given func signature to it.
	DefineAdapter(behaviorType, signature reflect.Type) (AdapterType, error)
}

// AdapterType is an emitted adapter struct type.
type AdapterType interface {
	// Type is the struct type.
	Type() reflect.Type

	// Instantiate allocates an adapter holding behavior and returns a
	// pointer to it.
	Instantiate(behavior reflect.Value) (reflect.Value, error)

	// Bind returns a func of the adapter signature forwarding to the
	// behavior held by instance.
	Bind(instance reflect.Value) (reflect.Value, error)
}

// ReflectEmitter emits adapters with reflect.StructOf and reflect.MakeFunc.
//
// A behavior either takes no parameters or exactly the signature's
// parameters. Its results are converted to the signature's results; a
// behavior without results yields zero values.
type ReflectEmitter struct{}

// NewReflectEmitter constructs a ReflectEmitter.
func NewReflectEmitter() *ReflectEmitter {
	return &ReflectEmitter{}
}

// DefineAdapter implements Emitter.
func (e *ReflectEmitter) DefineAdapter(behaviorType, signature reflect.Type) (AdapterType, error) {
	if behaviorType == nil || signature == nil {
		return nil, fmt.Errorf("%w: adapter needs a behavior and a signature", m.ErrNullArgument)
	}

	if behaviorType.Kind() != reflect.Func || signature.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %v cannot adapt to %v", notify.ErrSignatureMismatch, behaviorType, signature)
	}

	forwardParams, err := compatibleParams(behaviorType, signature)
	if err != nil {
		return nil, err
	}

	if err := compatibleResults(behaviorType, signature); err != nil {
		return nil, err
	}

	structType := reflect.StructOf([]reflect.StructField{{
		Name: BehaviorField,
		Type: behaviorType,
	}})

	return &reflectAdapter{
		structType:    structType,
		behaviorType:  behaviorType,
		signature:     signature,
		forwardParams: forwardParams,
	}, nil
}

func compatibleParams(behavior, signature reflect.Type) (bool, error) {
	if behavior.NumIn() == 0 {
		return false, nil
	}

	if behavior.NumIn() != signature.NumIn() || behavior.IsVariadic() != signature.IsVariadic() {
		return false, fmt.Errorf("%w: %v takes neither nothing nor the parameters of %v", notify.ErrSignatureMismatch, behavior, signature)
	}

	for i := range signature.NumIn() {
		if !signature.In(i).AssignableTo(behavior.In(i)) {
			return false, fmt.Errorf("%w: parameter %d of %v does not accept %v", notify.ErrSignatureMismatch, i, behavior, signature.In(i))
		}
	}

	return true, nil
}

func compatibleResults(behavior, signature reflect.Type) error {
	if behavior.NumOut() == 0 {
		return nil
	}

	if behavior.NumOut() != signature.NumOut() {
		return fmt.Errorf("%w: %v returns %d value(s), %v wants %d", notify.ErrSignatureMismatch, behavior, behavior.NumOut(), signature, signature.NumOut())
	}

	for i := range signature.NumOut() {
		if !behavior.Out(i).ConvertibleTo(signature.Out(i)) {
			return fmt.Errorf("%w: result %d of %v is not convertible to %v", notify.ErrSignatureMismatch, i, behavior, signature.Out(i))
		}
	}

	return nil
}

type reflectAdapter struct {
	structType    reflect.Type
	behaviorType  reflect.Type
	signature     reflect.Type
	forwardParams bool
}

func (a *reflectAdapter) Type() reflect.Type {
	return a.structType
}

func (a *reflectAdapter) Instantiate(behavior reflect.Value) (reflect.Value, error) {
	if !behavior.IsValid() || (behavior.Kind() == reflect.Func && behavior.IsNil()) {
		return reflect.Value{}, fmt.Errorf("%w: behavior", m.ErrNullArgument)
	}

	if !behavior.Type().AssignableTo(a.behaviorType) {
		return reflect.Value{}, fmt.Errorf("%w: %v is not %v", notify.ErrSignatureMismatch, behavior.Type(), a.behaviorType)
	}

	instance := reflect.New(a.structType)
	instance.Elem().Field(0).Set(behavior)

	return instance, nil
}

func (a *reflectAdapter) Bind(instance reflect.Value) (reflect.Value, error) {
	if !instance.IsValid() || instance.Type() != reflect.PointerTo(a.structType) || instance.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: instance of %v", m.ErrNullArgument, a.structType)
	}

	behavior := instance.Elem().Field(0)

	forward := reflect.MakeFunc(a.signature, func(args []reflect.Value) []reflect.Value {
		var out []reflect.Value

		switch {
		case !a.forwardParams:
			out = behavior.Call(nil)
		case a.signature.IsVariadic():
			out = behavior.CallSlice(args)
		default:
			out = behavior.Call(args)
		}

		return a.results(out)
	})

	return forward, nil
}

func (a *reflectAdapter) results(out []reflect.Value) []reflect.Value {
	results := make([]reflect.Value, a.signature.NumOut())

	for i := range results {
		want := a.signature.Out(i)
		if i >= len(out) {
			results[i] = reflect.Zero(want)
			continue
		}

		slot := reflect.New(want).Elem()
		if out[i].Type().AssignableTo(want) {
			slot.Set(out[i])
		} else {
			slot.Set(out[i].Convert(want))
		}

		results[i] = slot
	}

	return results
}
