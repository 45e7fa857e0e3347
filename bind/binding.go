package bind

import (
	"reflect"

	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/errors"
)

// Thunk is the uniform, pre-erased call shape of a bound operation: the full
// instantiated argument list (Self positions carry *T as reflect.Value),
// returning the result list.
type Thunk func(args []reflect.Value) []reflect.Value

// Binding is one callable bound to a named operation, in one of two forms:
//
//   - typed: a Go func whose type equals the operation signature with Self
//     substituted by *T; checked structurally against the concrete type.
//   - generic: a Thunk that dispatches through a capability interface and is
//     therefore valid for every type the enclosing default's When predicate
//     admits. Generic thunks are shared across concrete types, which lets
//     the vtable cache deduplicate tables between types.
type Binding struct {
	typed   reflect.Value
	generic Thunk
}

// Func wraps a typed callable as a binding. The callable's signature is
// validated against the operation when the binding is registered or
// resolved.
func Func(fn any) Binding {
	return Binding{typed: reflect.ValueOf(fn)}
}

// Generic wraps a pre-erased thunk as a binding. The caller guarantees the
// thunk accepts the operation's instantiated argument list for every type
// admitted by the surrounding When predicate.
func Generic(t Thunk) Binding {
	return Binding{generic: t}
}

// IsZero reports whether the binding is unset.
func (b Binding) IsZero() bool {
	return b.generic == nil && !b.typed.IsValid()
}

// identity returns a stable pointer identifying the callable, used for map
// shape hashing and vtable deduplication. Two types bound through the same
// generic thunk share an identity. The pointer is not unique on its own
// (reflect.MakeFunc funcs share one code stub), so shape hashing of typed
// maps additionally folds in the concrete type.
func (b Binding) identity() uintptr {
	if b.generic != nil {
		return reflect.ValueOf(b.generic).Pointer()
	}
	return b.typed.Pointer()
}

// check validates the binding against an operation instantiated for t.
// Generic thunks are accepted as-is; typed callables must match the
// substituted signature exactly.
func (b Binding) check(op concept.Operation, t reflect.Type) error {
	if b.generic != nil {
		return nil
	}
	if !b.typed.IsValid() {
		return errors.InvalidInput(errors.PhaseResolve, "zero binding for operation "+op.Name)
	}
	if b.typed.Kind() != reflect.Func {
		return errors.NotAFunction(errors.PhaseResolve, op.Name, b.typed.Type().String())
	}
	want := op.Sig.Instantiate(t)
	if b.typed.Type() != want {
		return errors.TypeMismatch(errors.PhaseResolve, op.Name,
			want.String(), b.typed.Type().String())
	}
	return nil
}

// Thunk erases the binding into the uniform call shape.
func (b Binding) Thunk() Thunk {
	if b.generic != nil {
		return b.generic
	}
	fn := b.typed
	return func(args []reflect.Value) []reflect.Value {
		return fn.Call(args)
	}
}
