package vtable

import (
	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/errors"
	"github.com/polykit/poly/storage"
)

// Slot is one dispatch entry: a named operation and its erased thunk.
type Slot struct {
	Op     concept.Operation
	Invoke bind.Thunk
}

// Lifecycle carries the special entries the wrapper needs to manage its
// storage without knowing the concrete type: copy-construct, move,
// destroy-in-place, and swap.
type Lifecycle struct {
	Clone   func(*storage.Storage) (*storage.Storage, error)
	Move    func(*storage.Storage) (*storage.Storage, error)
	Destroy func(*storage.Storage)
	Swap    func(a, b *storage.Storage) error
}

// VTable is the dispatch table for one concept-map shape: a slot per
// required operation plus the lifecycle entries. Tables are built once,
// cached for the life of the process, and shared by every wrapper whose
// concept map has the same shape; they are never mutated after
// construction and safe for unsynchronized concurrent reads.
//
// A VTable deliberately does not record a concrete type: two distinct
// types whose maps bind the same generic thunks share one table. Maps
// with typed bindings hash their type into the shape, so their tables
// stay private to the type.
type VTable struct {
	c         *concept.Concept
	slots     map[string]*Slot
	lifecycle Lifecycle
	shape     uint64
}

// Concept returns the concept this table dispatches.
func (v *VTable) Concept() *concept.Concept {
	return v.c
}

// Slot looks up the dispatch entry for a named operation.
func (v *VTable) Slot(name string) (*Slot, bool) {
	s, ok := v.slots[name]
	return s, ok
}

// Len returns the number of operation slots.
func (v *VTable) Len() int {
	return len(v.slots)
}

// Lifecycle returns the table's lifecycle entries.
func (v *VTable) Lifecycle() Lifecycle {
	return v.lifecycle
}

// Shape returns the concept-map shape this table was built from. Wrappers
// compare shapes, never table pointers: table sharing is a size
// optimization and must stay unobservable.
func (v *VTable) Shape() uint64 {
	return v.shape
}

// build constructs the table for a resolved concept map. Resolution has
// already proven totality, so a missing binding here is an internal
// inconsistency rather than a user error.
func build(m *bind.Map) (*VTable, error) {
	c := m.Concept()
	v := &VTable{
		c:     c,
		slots: make(map[string]*Slot, c.Len()),
		shape: m.Shape(),
	}

	for _, op := range c.Operations() {
		b, ok := m.Binding(op.Name)
		if !ok {
			return nil, errors.New(errors.PhaseBuild, errors.KindMissingOperation).
				Concept(c.Name()).
				Op(op.Name).
				Detail("resolved map lost a binding").
				Build()
		}
		v.slots[op.Name] = &Slot{Op: op, Invoke: b.Thunk()}
	}

	// Lifecycle entries delegate to the storage layer, which carries the
	// concrete type itself; that keeps the table type-independent and
	// therefore shareable.
	v.lifecycle = Lifecycle{
		Clone:   (*storage.Storage).Clone,
		Move:    (*storage.Storage).Move,
		Destroy: (*storage.Storage).Destroy,
		Swap:    storage.Swap,
	}

	return v, nil
}
