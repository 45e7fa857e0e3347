package iterator

import (
	"reflect"
	"sync"

	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
)

// Family is the iterator concept hierarchy instantiated for one element
// type E:
//
//	Iterator ⊂ InputIterator ⊂ ForwardIterator ⊂ BidirectionalIterator ⊂ RandomAccessIterator
//
// Each refinement adds operations: increment and dereference at the base,
// then equality, default-construction, decrement, and finally random
// advance plus distance. Families are built once per element type, their
// default concept maps registered alongside.
type Family struct {
	Elem          reflect.Type
	Iterator      *concept.Concept
	Input         *concept.Concept
	Forward       *concept.Concept
	Bidirectional *concept.Concept
	RandomAccess  *concept.Concept
}

var (
	familyMu sync.Mutex
	families = make(map[reflect.Type]*Family)
)

// FamilyFor returns the iterator concept family for element type E,
// building and registering it on first use.
func FamilyFor[E any]() *Family {
	elem := reflect.TypeOf((*E)(nil)).Elem()

	familyMu.Lock()
	defer familyMu.Unlock()
	if f, ok := families[elem]; ok {
		return f
	}

	f := buildFamily[E](elem)
	registerDefaults(f)
	families[elem] = f
	return f
}

// ConceptFor maps a target category to the concept an erased iterator of
// that category must satisfy.
func (f *Family) ConceptFor(cat Category) *concept.Concept {
	switch cat {
	case Input:
		return f.Input
	case Forward:
		return f.Forward
	case Bidirectional:
		return f.Bidirectional
	case RandomAccess:
		return f.RandomAccess
	default:
		return nil
	}
}

func buildFamily[E any](elem reflect.Type) *Family {
	suffix := "[" + elem.String() + "]"

	iter := concept.MustRequires("Iterator"+suffix,
		concept.Op("increment", concept.Fn[func(concept.Self)]()),
		concept.Op("dereference", concept.Fn[func(concept.Self) E]()),
	)
	input := concept.MustRequires("InputIterator"+suffix,
		iter,
		concept.Op("equal", concept.Fn[func(concept.Self, concept.Self) bool]()),
	)
	forward := concept.MustRequires("ForwardIterator"+suffix,
		input,
		concept.Op("default-construct", concept.Fn[func(concept.Self)]()),
	)
	bidir := concept.MustRequires("BidirectionalIterator"+suffix,
		forward,
		concept.Op("decrement", concept.Fn[func(concept.Self)]()),
	)
	random := concept.MustRequires("RandomAccessIterator"+suffix,
		bidir,
		concept.Op("advance", concept.Fn[func(concept.Self, int)]()),
		concept.Op("distance", concept.Fn[func(concept.Self, concept.Self) int]()),
	)

	return &Family{
		Elem:          elem,
		Iterator:      iter,
		Input:         input,
		Forward:       forward,
		Bidirectional: bidir,
		RandomAccess:  random,
	}
}

// zeroConstruct resets the target to its zero value: the default binding
// for "default-construct". One thunk serves every concrete type, so types
// on the unmodified default maps can share vtables.
var zeroConstruct = bind.Generic(func(args []reflect.Value) []reflect.Value {
	args[0].Elem().SetZero()
	return nil
})

// registerDefaults installs the family's default concept maps: native
// method bindings for the base operations, plus conditionally enabled maps
// for the bidirectional and random-access extensions, gated on the
// concrete type's capability tag.
func registerDefaults(f *Family) {
	elem := f.Elem

	mustDefault := func(c *concept.Concept, d bind.Default) {
		if err := bind.RegisterDefault(c, d); err != nil {
			panic("iterator: register default map " + d.Name + ": " + err.Error())
		}
	}

	mustDefault(f.Iterator, bind.Default{
		Name: "native increment/dereference " + elem.String(),
		Bind: func(t reflect.Type) (map[string]bind.Binding, error) {
			m := make(map[string]bind.Binding)
			bindMethod(m, "increment", t, methodNext)
			bindDeref(m, t, elem)
			return m, nil
		},
	})

	mustDefault(f.Input, bind.Default{
		Name: "native equality " + elem.String(),
		Bind: func(t reflect.Type) (map[string]bind.Binding, error) {
			m := make(map[string]bind.Binding)
			bindMethod(m, "equal", t, methodEqual)
			return m, nil
		},
	})

	mustDefault(f.Forward, bind.Default{
		Name: "zero default-construct " + elem.String(),
		Bind: func(reflect.Type) (map[string]bind.Binding, error) {
			return map[string]bind.Binding{"default-construct": zeroConstruct}, nil
		},
	})

	mustDefault(f.Bidirectional, bind.Default{
		Name: "native decrement " + elem.String(),
		When: func(t reflect.Type) bool { return CategoryOf(t).AtLeast(Bidirectional) },
		Bind: func(t reflect.Type) (map[string]bind.Binding, error) {
			m := make(map[string]bind.Binding)
			bindMethod(m, "decrement", t, methodPrev)
			return m, nil
		},
	})

	mustDefault(f.RandomAccess, bind.Default{
		Name: "native advance/distance " + elem.String(),
		When: func(t reflect.Type) bool { return CategoryOf(t).AtLeast(RandomAccess) },
		Bind: func(t reflect.Type) (map[string]bind.Binding, error) {
			m := make(map[string]bind.Binding)
			bindMethod(m, "advance", t, methodAdvance)
			bindMethod(m, "distance", t, methodDistance)
			return m, nil
		},
	})
}

// bindMethod binds the method expression for a native method, when the
// type has one. The method expression on *T has exactly the instantiated
// operation shape (func(*T, args...)), so the binding layer's structural
// check produces a precise diagnostic when the native shape is off.
func bindMethod(m map[string]bind.Binding, op string, t reflect.Type, method string) {
	mt, ok := reflect.PointerTo(t).MethodByName(method)
	if !ok {
		return // totality checking reports the unbound operation
	}
	m[op] = bind.Func(mt.Func.Interface())
}

// bindDeref binds dereference, inserting a conversion wrapper when the
// native Deref returns a type convertible to (but distinct from) the
// family's element type.
func bindDeref(m map[string]bind.Binding, t, elem reflect.Type) {
	mt, ok := reflect.PointerTo(t).MethodByName(methodDeref)
	if !ok {
		return
	}
	ft := mt.Func.Type()
	if ft.NumIn() != 1 || ft.NumOut() != 1 {
		m["dereference"] = bind.Func(mt.Func.Interface())
		return
	}
	out := ft.Out(0)
	if out == elem {
		m["dereference"] = bind.Func(mt.Func.Interface())
		return
	}
	if !out.ConvertibleTo(elem) {
		m["dereference"] = bind.Func(mt.Func.Interface()) // precise mismatch reported at resolve
		return
	}
	wrapped := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{reflect.PointerTo(t)}, []reflect.Type{elem}, false),
		func(args []reflect.Value) []reflect.Value {
			return []reflect.Value{mt.Func.Call(args)[0].Convert(elem)}
		},
	)
	m["dereference"] = bind.Func(wrapped.Interface())
}
