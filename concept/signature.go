package concept

import (
	"reflect"

	"github.com/polykit/poly/errors"
)

// Self is the placeholder for the erased type in operation signatures.
//
// A signature is declared as a Go func type mentioning Self in one or more
// parameter positions:
//
//	concept.Fn[func(concept.Self)]()                   // unary mutator
//	concept.Fn[func(concept.Self, concept.Self) bool]() // binary predicate
//
// When a signature is instantiated for a concrete type T, every Self
// parameter becomes *T: bound callables always receive the address of the
// held value, so mutating and read-only operations share one call shape.
type Self struct{}

var selfType = reflect.TypeOf(Self{})

// Signature is the structural shape of a named operation: an ordered
// parameter list and result list over the Self placeholder.
type Signature struct {
	fn      reflect.Type
	selfPos []int
}

// Fn builds a Signature from the func type F. It panics if F is not a func
// type, mentions Self in a result, or mentions Self nowhere; signatures are
// declared in package init code, so a malformed one is a programmer error
// caught on first use.
func Fn[F any]() Signature {
	sig, err := ParseFn(reflect.TypeOf((*F)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return sig
}

// ParseFn validates a func type as an operation signature.
func ParseFn(fn reflect.Type) (Signature, error) {
	if fn == nil || fn.Kind() != reflect.Func {
		name := "<nil>"
		if fn != nil {
			name = fn.String()
		}
		return Signature{}, errors.NotAFunction(errors.PhaseDeclare, "", name)
	}
	if fn.IsVariadic() {
		return Signature{}, errors.InvalidInput(errors.PhaseDeclare,
			"variadic signatures are not supported: "+fn.String())
	}

	var selfPos []int
	for i := 0; i < fn.NumIn(); i++ {
		if fn.In(i) == selfType {
			selfPos = append(selfPos, i)
		}
	}
	for i := 0; i < fn.NumOut(); i++ {
		if fn.Out(i) == selfType {
			return Signature{}, errors.InvalidInput(errors.PhaseDeclare,
				"Self may not appear in a result position: "+fn.String())
		}
	}
	if len(selfPos) == 0 {
		return Signature{}, errors.SelfMissing("", fn.String())
	}

	return Signature{fn: fn, selfPos: selfPos}, nil
}

// Type returns the underlying func type over Self.
func (s Signature) Type() reflect.Type {
	return s.fn
}

// SelfPositions returns the parameter indices holding the Self placeholder.
// The first position is the dispatch position.
func (s Signature) SelfPositions() []int {
	return s.selfPos
}

// NumIn returns the parameter count.
func (s Signature) NumIn() int {
	return s.fn.NumIn()
}

// NumOut returns the result count.
func (s Signature) NumOut() int {
	return s.fn.NumOut()
}

// Equal reports whether two signatures have identical structure.
func (s Signature) Equal(other Signature) bool {
	return s.fn == other.fn
}

// IsZero reports whether the signature is unset.
func (s Signature) IsZero() bool {
	return s.fn == nil
}

// Instantiate substitutes the concrete type t for Self: every Self parameter
// becomes *t, everything else is unchanged. The result is the exact func
// type a typed binding for t must have.
func (s Signature) Instantiate(t reflect.Type) reflect.Type {
	in := make([]reflect.Type, s.fn.NumIn())
	for i := range in {
		if s.fn.In(i) == selfType {
			in[i] = reflect.PointerTo(t)
		} else {
			in[i] = s.fn.In(i)
		}
	}
	out := make([]reflect.Type, s.fn.NumOut())
	for i := range out {
		out[i] = s.fn.Out(i)
	}
	return reflect.FuncOf(in, out, false)
}

func (s Signature) String() string {
	if s.fn == nil {
		return "<zero signature>"
	}
	return s.fn.String()
}

// Operation is a named, signature-typed requirement: the unit of binding
// and dispatch.
type Operation struct {
	Name string
	Sig  Signature
}

// Op declares a named operation.
func Op(name string, sig Signature) Operation {
	return Operation{Name: name, Sig: sig}
}

func (Operation) isRequirement() {}
