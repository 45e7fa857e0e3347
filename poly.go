package poly

import (
	"reflect"

	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/errors"
	"github.com/polykit/poly/storage"
	"github.com/polykit/poly/vtable"
)

// Poly is the erased wrapper: it owns one concrete value in its storage and
// dispatches the operations of one concept through a shared vtable. The
// storage and the vtable always describe the same concept-map resolution;
// they are never mismatched.
//
// A Poly has value semantics expressed the Go way: Clone copies, Move
// transfers ownership and leaves the source empty-but-destroyable, Swap
// exchanges two wrappers, Destroy releases the held value. The struct
// itself must be handled by pointer and is not safe for concurrent use;
// the vtable it references is shared and immutable.
type Poly struct {
	vt *vtable.VTable
	st *storage.Storage
}

// New erases value under the concept c using the process-wide binding
// registry: it resolves the concept map for the value's type, builds or
// reuses the vtable, and places the value inline or on the heap. Every
// totality and signature failure surfaces here, before the wrapper exists.
func New(c *concept.Concept, value any) (*Poly, error) {
	return NewWithRegistry(nil, c, value)
}

// NewWithRegistry erases value using an explicit binding registry; a nil
// registry means the process-wide one.
func NewWithRegistry(r *bind.Registry, c *concept.Concept, value any) (*Poly, error) {
	if value == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "cannot erase a nil value")
	}
	return construct(r, c, func() (*storage.Storage, error) {
		return storage.New(value)
	}, reflect.TypeOf(value))
}

// Zero default-constructs an erased value of the concrete type t under c.
func Zero(c *concept.Concept, t reflect.Type) (*Poly, error) {
	return ZeroWithRegistry(nil, c, t)
}

// ZeroWithRegistry is Zero against an explicit binding registry.
func ZeroWithRegistry(r *bind.Registry, c *concept.Concept, t reflect.Type) (*Poly, error) {
	return construct(r, c, func() (*storage.Storage, error) {
		return storage.Zero(t)
	}, t)
}

func construct(r *bind.Registry, c *concept.Concept, place func() (*storage.Storage, error), t reflect.Type) (*Poly, error) {
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "nil concept")
	}

	var m *bind.Map
	var err error
	if r != nil {
		m, err = r.Resolve(c, t)
	} else {
		m, err = bind.Resolve(c, t)
	}
	if err != nil {
		return nil, err
	}

	vt, err := vtable.Build(m)
	if err != nil {
		return nil, err
	}

	st, err := place()
	if err != nil {
		return nil, err
	}

	return &Poly{vt: vt, st: st}, nil
}

// Valid reports whether the wrapper currently holds a value. Moved-from and
// destroyed wrappers are invalid; the only operations allowed on them are
// Valid and Destroy.
func (p *Poly) Valid() bool {
	return p != nil && p.st.Valid()
}

// Concept returns the concept the wrapper was erased under.
func (p *Poly) Concept() *concept.Concept {
	if p == nil || p.vt == nil {
		return nil
	}
	return p.vt.Concept()
}

// Type returns the concrete type of the held value, or nil when invalid.
func (p *Poly) Type() reflect.Type {
	if !p.Valid() {
		return nil
	}
	return p.st.Type()
}

// Mode returns the storage placement of the held value.
func (p *Poly) Mode() storage.Mode {
	if p == nil {
		return 0
	}
	return p.st.Mode()
}

// Self returns the address of the held value (*T as a reflect.Value); it is
// what vtable thunks receive in Self positions.
func (p *Poly) Self() reflect.Value {
	return p.st.Addr()
}

// Shape returns the concept-map shape the wrapper was erased under. Two
// wrappers are comparable exactly when their shapes match.
func (p *Poly) Shape() uint64 {
	if p == nil || p.vt == nil {
		return 0
	}
	return p.vt.Shape()
}

// Callable is a named operation bound to a live erased value; calling it
// executes the corresponding vtable slot against the value's address.
type Callable struct {
	p    *Poly
	slot *vtable.Slot
}

// Virtual looks up the named operation and binds it to the wrapper's
// current value. The name must be one the concept declares.
func (p *Poly) Virtual(name string) (Callable, error) {
	if !p.Valid() {
		return Callable{}, errors.NotInitialized("poly")
	}
	slot, ok := p.vt.Slot(name)
	if !ok {
		return Callable{}, errors.UnknownOperation(p.vt.Concept().Name(), name)
	}
	return Callable{p: p, slot: slot}, nil
}

// Call invokes a named operation and returns its first result, or nil for
// void operations. Arguments fill the non-dispatch parameters in order;
// a Self position accepts another *Poly holding the same concrete type.
func (p *Poly) Call(name string, args ...any) (any, error) {
	c, err := p.Virtual(name)
	if err != nil {
		return nil, err
	}
	out, err := c.Call(args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// Call executes the bound operation. The wrapper itself occupies the first
// Self position; caller arguments fill the remaining parameters in order.
func (c Callable) Call(args ...any) ([]any, error) {
	if !c.p.Valid() {
		return nil, errors.NotInitialized("poly")
	}

	sig := c.slot.Op.Sig
	selfPos := sig.SelfPositions()
	dispatch := selfPos[0]

	want := sig.NumIn() - 1 // dispatch position is implicit
	if len(args) != want {
		return nil, errors.ArityMismatch(errors.PhaseInvoke, c.slot.Op.Name, want, len(args))
	}

	in := make([]reflect.Value, sig.NumIn())
	next := 0
	for i := 0; i < sig.NumIn(); i++ {
		if i == dispatch {
			in[i] = c.p.Self()
			continue
		}
		arg := args[next]
		next++

		rv, err := c.p.argValue(c.slot.Op, sig.Type().In(i), isSelfPosition(selfPos, i), arg)
		if err != nil {
			return nil, err
		}
		in[i] = rv
	}

	out := c.slot.Invoke(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func (p *Poly) argValue(op concept.Operation, declared reflect.Type, isSelf bool, arg any) (reflect.Value, error) {
	if isSelf {
		other, ok := arg.(*Poly)
		if !ok {
			got := "<nil>"
			if arg != nil {
				got = reflect.TypeOf(arg).String()
			}
			return reflect.Value{}, errors.TypeMismatch(errors.PhaseInvoke, op.Name, "*poly.Poly", got)
		}
		if !other.Valid() {
			return reflect.Value{}, errors.NotInitialized("poly argument")
		}
		if other.Type() != p.Type() {
			return reflect.Value{}, errors.TypeMismatch(errors.PhaseInvoke, op.Name,
				p.Type().String(), other.Type().String())
		}
		return other.Self(), nil
	}

	if arg == nil {
		return reflect.Zero(declared), nil
	}
	rv := reflect.ValueOf(arg)
	if rv.Type() == declared {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(declared) {
		return rv.Convert(declared), nil
	}
	return reflect.Value{}, errors.TypeMismatch(errors.PhaseInvoke, op.Name,
		declared.String(), rv.Type().String())
}

func isSelfPosition(selfPos []int, i int) bool {
	for _, p := range selfPos {
		if p == i {
			return true
		}
	}
	return false
}

// Clone copies the wrapper: the held value is copied with its native cost
// profile (inline values relocate bytes, heap values allocate and clone)
// and the vtable reference is shared.
func (p *Poly) Clone() (*Poly, error) {
	if !p.Valid() {
		return nil, errors.NotInitialized("poly")
	}
	st, err := p.vt.Lifecycle().Clone(p.st)
	if err != nil {
		return nil, err
	}
	return &Poly{vt: p.vt, st: st}, nil
}

// Move transfers the held value into a fresh wrapper and leaves p invalid.
// Heap-backed values move by pointer transfer; inline values relocate.
func (p *Poly) Move() (*Poly, error) {
	if !p.Valid() {
		return nil, errors.NotInitialized("poly")
	}
	st, err := p.vt.Lifecycle().Move(p.st)
	if err != nil {
		return nil, err
	}
	return &Poly{vt: p.vt, st: st}, nil
}

// Destroy releases the held value. Safe to call on an already destroyed or
// moved-from wrapper.
func (p *Poly) Destroy() {
	if p == nil || p.st == nil {
		return
	}
	if p.vt != nil {
		p.vt.Lifecycle().Destroy(p.st)
		return
	}
	p.st.Destroy()
}

// Swap exchanges the held values and vtable references of two wrappers.
// Both operands must be erased under the same concept; their concrete
// types may differ.
func Swap(a, b *Poly) error {
	if !a.Valid() || !b.Valid() {
		return errors.NotInitialized("poly")
	}
	if a.vt.Concept().Fingerprint() != b.vt.Concept().Fingerprint() {
		return errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			Concept(a.vt.Concept().Name()).
			Detail("cannot swap with a wrapper for concept %s", b.vt.Concept().Name()).
			Build()
	}
	if err := a.vt.Lifecycle().Swap(a.st, b.st); err != nil {
		return err
	}
	a.vt, b.vt = b.vt, a.vt
	return nil
}

// Comparable reports whether two wrappers were erased under the same
// concept-map shape, i.e. the same concept with the same callables bound.
// Operations relating two erased values (equality, distance) are only
// meaningful between comparable wrappers.
func Comparable(a, b *Poly) bool {
	return a.Valid() && b.Valid() && a.Shape() == b.Shape()
}
