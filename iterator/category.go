package iterator

import (
	"reflect"
)

// Category is an iterator capability tag, ordered from weakest to
// strongest. A source iterator can be erased into any target category at
// or below its own.
type Category int

const (
	Input Category = iota + 1
	Forward
	Bidirectional
	RandomAccess
)

func (c Category) String() string {
	switch c {
	case Input:
		return "input"
	case Forward:
		return "forward"
	case Bidirectional:
		return "bidirectional"
	case RandomAccess:
		return "random-access"
	default:
		return "unknown"
	}
}

// AtLeast reports whether c is at least as capable as other.
func (c Category) AtLeast(other Category) bool {
	return c >= other
}

// Tagged lets a concrete iterator declare its capability tag explicitly.
// Without a tag the category is inferred from the native method set.
type Tagged interface {
	Category() Category
}

var taggedType = reflect.TypeOf((*Tagged)(nil)).Elem()

// Native capability method names a concrete iterator exposes. Default
// concept maps bind these to the erased operations.
const (
	methodNext     = "Next"
	methodDeref    = "Deref"
	methodEqual    = "Equal"
	methodPrev     = "Prev"
	methodAdvance  = "Advance"
	methodDistance = "Distance"
)

// CategoryOf determines a concrete iterator type's capability tag: the
// declared Tagged value when the type provides one, otherwise an inference
// from which native methods exist (Prev makes it bidirectional, Advance
// plus Distance make it random-access, anything with Next and Deref is at
// least forward).
func CategoryOf(t reflect.Type) Category {
	if t == nil {
		return 0
	}
	pt := reflect.PointerTo(t)

	if pt.Implements(taggedType) {
		return reflect.New(t).Interface().(Tagged).Category()
	}

	if !hasMethod(pt, methodNext) || !hasMethod(pt, methodDeref) {
		return 0
	}
	switch {
	case hasMethod(pt, methodAdvance) && hasMethod(pt, methodDistance):
		return RandomAccess
	case hasMethod(pt, methodPrev):
		return Bidirectional
	default:
		return Forward
	}
}

func hasMethod(pt reflect.Type, name string) bool {
	_, ok := pt.MethodByName(name)
	return ok
}
