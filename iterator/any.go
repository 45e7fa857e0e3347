package iterator

import (
	"reflect"

	root "github.com/polykit/poly"
	"github.com/polykit/poly/errors"
)

// Any is the erased iterator: it holds any concrete iterator whose
// capability tag is at least the declared category cat, and whose element
// type is compatible with E, dispatching everything through the concept
// engine. Like the wrapper it is built on, an Any is not safe for
// concurrent use.
type Any[E any] struct {
	p   *root.Poly
	fam *Family
	cat Category
}

// Erase wraps a concrete iterator under the target category. Compatibility
// is checked before the wrapper is built, each property independently:
//
//   - the source's category must be at least as capable as cat;
//   - the source's element type (its Deref result) must be convertible to E;
//   - for random-access targets, the source's difference type (its Distance
//     result) must be exactly int.
//
// A failed check names the property at fault. The concept map itself is
// then resolved and must be total, so an iterator missing a required
// native operation is also rejected here, naming the operation.
func Erase[E any](cat Category, it any) (*Any[E], error) {
	if it == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "cannot erase a nil iterator")
	}
	fam := FamilyFor[E]()
	c := fam.ConceptFor(cat)
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "unknown target category")
	}

	t := reflect.TypeOf(it)

	src := CategoryOf(t)
	if src == 0 {
		return nil, errors.New(errors.PhaseResolve, errors.KindIncompatibleCategory).
			GoType(t.String()).
			Detail("type exposes no iterator capability (needs Next and Deref)").
			Build()
	}
	if !src.AtLeast(cat) {
		return nil, errors.IncompatibleCategory(t.String(), src.String(), cat.String())
	}

	if err := checkElemType(t, fam.Elem); err != nil {
		return nil, err
	}
	if cat.AtLeast(RandomAccess) {
		if err := checkDifferenceType(t); err != nil {
			return nil, err
		}
	}

	p, err := root.New(c, it)
	if err != nil {
		return nil, err
	}
	return &Any[E]{p: p, fam: fam, cat: cat}, nil
}

func checkElemType(t, elem reflect.Type) error {
	mt, ok := reflect.PointerTo(t).MethodByName(methodDeref)
	if !ok {
		return errors.New(errors.PhaseResolve, errors.KindMissingOperation).
			Op("dereference").
			GoType(t.String()).
			Detail("no native %s method", methodDeref).
			Build()
	}
	ft := mt.Func.Type()
	if ft.NumOut() != 1 {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			Op("dereference").
			GoType(t.String()).
			Detail("Deref must return exactly one value").
			Build()
	}
	if out := ft.Out(0); out != elem && !out.ConvertibleTo(elem) {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			Op("dereference").
			GoType(t.String()).
			Detail("value type %s is not convertible to %s", out, elem).
			Build()
	}
	return nil
}

var intType = reflect.TypeOf(int(0))

func checkDifferenceType(t reflect.Type) error {
	mt, ok := reflect.PointerTo(t).MethodByName(methodDistance)
	if !ok {
		return nil // totality checking reports the unbound operation
	}
	ft := mt.Func.Type()
	if ft.NumOut() != 1 || ft.Out(0) != intType {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			Op("distance").
			GoType(t.String()).
			Detail("difference type must be exactly int").
			Build()
	}
	return nil
}

// Category returns the wrapper's declared category.
func (a *Any[E]) Category() Category {
	return a.cat
}

// ConcreteType returns the wrapped iterator's concrete type.
func (a *Any[E]) ConcreteType() reflect.Type {
	return a.p.Type()
}

// Poly exposes the underlying erased wrapper.
func (a *Any[E]) Poly() *root.Poly {
	return a.p
}

// Next advances the iterator by one position.
func (a *Any[E]) Next() error {
	_, err := a.p.Call("increment")
	return err
}

// Deref returns the element at the current position.
func (a *Any[E]) Deref() (E, error) {
	var zero E
	v, err := a.p.Call("dereference")
	if err != nil {
		return zero, err
	}
	return v.(E), nil
}

// Reset default-constructs the iterator in place. The wrapper's declared
// category must be at least forward.
func (a *Any[E]) Reset() error {
	if !a.cat.AtLeast(Forward) {
		return errors.IncompatibleCategory(a.p.Type().String(), a.cat.String(), Forward.String())
	}
	_, err := a.p.Call("default-construct")
	return err
}

// Prev steps the iterator back by one position. The wrapper's declared
// category must be at least bidirectional.
func (a *Any[E]) Prev() error {
	if !a.cat.AtLeast(Bidirectional) {
		return errors.IncompatibleCategory(a.p.Type().String(), a.cat.String(), Bidirectional.String())
	}
	_, err := a.p.Call("decrement")
	return err
}

// Advance moves the iterator by n positions (n may be negative). The
// wrapper's declared category must be random-access.
func (a *Any[E]) Advance(n int) error {
	if !a.cat.AtLeast(RandomAccess) {
		return errors.IncompatibleCategory(a.p.Type().String(), a.cat.String(), RandomAccess.String())
	}
	_, err := a.p.Call("advance", n)
	return err
}

// Distance returns the number of positions from a to other.
func (a *Any[E]) Distance(other *Any[E]) (int, error) {
	if !a.cat.AtLeast(RandomAccess) {
		return 0, errors.IncompatibleCategory(a.p.Type().String(), a.cat.String(), RandomAccess.String())
	}
	if !root.Comparable(a.p, other.p) {
		return 0, errors.Incomparable(a.p.Concept().Name())
	}
	v, err := a.p.Call("distance", other.p)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Equal reports whether two erased iterators denote the same position.
// Both operands must have been erased under the same concept map shape;
// comparing across shapes is a defined failure here, not undefined
// behavior.
func (a *Any[E]) Equal(other *Any[E]) (bool, error) {
	if other == nil {
		return false, errors.InvalidInput(errors.PhaseInvoke, "nil operand")
	}
	if !root.Comparable(a.p, other.p) {
		return false, errors.Incomparable(a.p.Concept().Name())
	}
	v, err := a.p.Call("equal", other.p)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Clone copies the erased iterator; the copy iterates independently.
func (a *Any[E]) Clone() (*Any[E], error) {
	p, err := a.p.Clone()
	if err != nil {
		return nil, err
	}
	return &Any[E]{p: p, fam: a.fam, cat: a.cat}, nil
}

// Swap exchanges two erased iterators of the same declared category.
func SwapAny[E any](a, b *Any[E]) error {
	if a.cat != b.cat {
		return errors.IncompatibleCategory("", a.cat.String(), b.cat.String())
	}
	return root.Swap(a.p, b.p)
}

// Destroy releases the wrapped iterator.
func (a *Any[E]) Destroy() {
	a.p.Destroy()
}
