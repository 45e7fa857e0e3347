package bind

import (
	"hash/fnv"
	"reflect"
	"sort"
	"strconv"

	"github.com/polykit/poly/concept"
)

// Map is a total concept map: for one (concept, concrete type) pair, a
// binding for every operation the concept requires. Maps are produced by
// Registry.Resolve and immutable afterwards.
type Map struct {
	c        *concept.Concept
	t        reflect.Type
	bindings map[string]Binding
	shape    uint64
}

// Concept returns the concept this map satisfies.
func (m *Map) Concept() *concept.Concept {
	return m.c
}

// Type returns the concrete type the map binds.
func (m *Map) Type() reflect.Type {
	return m.t
}

// Binding returns the callable bound to the named operation.
func (m *Map) Binding(name string) (Binding, bool) {
	b, ok := m.bindings[name]
	return b, ok
}

// Names returns the bound operation names, sorted.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.bindings))
	for name := range m.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape is a stable hash over (operation name, callable identity) pairs.
// Maps whose bindings are all generic thunks share a shape across concrete
// types when every operation is bound to the same thunk; a map with any
// typed binding also hashes its concrete type, so its shape is private to
// that type. Shapes drive both vtable deduplication and the comparability
// check between erased values.
func (m *Map) Shape() uint64 {
	return m.shape
}

func computeShape(fingerprint uint64, t reflect.Type, bindings map[string]Binding) uint64 {
	names := make([]string, 0, len(bindings))
	typed := false
	for name, b := range bindings {
		names = append(names, name)
		if b.generic == nil {
			typed = true
		}
	}
	sort.Strings(names)

	h := fnv.New64a()
	h.Write([]byte(strconv.FormatUint(fingerprint, 16)))
	if typed {
		// Code pointers of reflect.MakeFunc-built funcs all point at the
		// same stub, so typed callables for different types can collide on
		// identity alone. Hashing the type keeps a typed map's vtable from
		// being handed to another concrete type.
		h.Write([]byte(strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 16)))
		h.Write([]byte{0})
	}
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatUint(uint64(bindings[name].identity()), 16)))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
