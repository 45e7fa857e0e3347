package poly

import (
	"errors"
	"reflect"
	"testing"

	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
	polyerr "github.com/polykit/poly/errors"
	"github.com/polykit/poly/storage"
)

var polyCounter = concept.MustRequires("polytest.Counter",
	concept.Op("increment", concept.Fn[func(concept.Self)]()),
	concept.Op("add", concept.Fn[func(concept.Self, int)]()),
	concept.Op("value", concept.Fn[func(concept.Self) int]()),
	concept.Op("equal", concept.Fn[func(concept.Self, concept.Self) bool]()),
)

// smallCounter fits the inline buffer; bigCounter exceeds it.
type smallCounter struct{ n int64 }

type bigCounter struct {
	pad [16]int64
	n   int64
}

func newCounterRegistry(t *testing.T) *bind.Registry {
	t.Helper()
	r := bind.NewRegistry()

	err := r.RegisterExplicit(polyCounter, reflect.TypeOf(smallCounter{}), map[string]bind.Binding{
		"increment": bind.Func(func(c *smallCounter) { c.n++ }),
		"add":       bind.Func(func(c *smallCounter, d int) { c.n += int64(d) }),
		"value":     bind.Func(func(c *smallCounter) int { return int(c.n) }),
		"equal":     bind.Func(func(a, b *smallCounter) bool { return a.n == b.n }),
	})
	if err != nil {
		t.Fatalf("register small: %v", err)
	}

	err = r.RegisterExplicit(polyCounter, reflect.TypeOf(bigCounter{}), map[string]bind.Binding{
		"increment": bind.Func(func(c *bigCounter) { c.n++ }),
		"add":       bind.Func(func(c *bigCounter, d int) { c.n += int64(d) }),
		"value":     bind.Func(func(c *bigCounter) int { return int(c.n) }),
		"equal":     bind.Func(func(a, b *bigCounter) bool { return a.n == b.n }),
	})
	if err != nil {
		t.Fatalf("register big: %v", err)
	}
	return r
}

func mustValue(t *testing.T, p *Poly) int {
	t.Helper()
	v, err := p.Call("value")
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	return v.(int)
}

func TestNew_Dispatch(t *testing.T) {
	r := newCounterRegistry(t)

	p, err := NewWithRegistry(r, polyCounter, smallCounter{n: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Mode() != storage.ModeInline {
		t.Errorf("smallCounter placed %s, want inline", p.Mode())
	}

	if _, err := p.Call("increment"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := p.Call("add", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := mustValue(t, p); got != 16 {
		t.Errorf("value = %d, want 16", got)
	}

	// Virtual returns a callable bound to the live value.
	inc, err := p.Virtual("increment")
	if err != nil {
		t.Fatalf("Virtual: %v", err)
	}
	if _, err := inc.Call(); err != nil {
		t.Fatalf("bound call: %v", err)
	}
	if got := mustValue(t, p); got != 17 {
		t.Errorf("value = %d, want 17", got)
	}
}

func TestNew_FailsBeforeInstanceExists(t *testing.T) {
	r := bind.NewRegistry()

	// No map registered: resolution must fail naming the first missing op.
	_, err := NewWithRegistry(r, polyCounter, smallCounter{})
	var pe *polyerr.Error
	if !errors.As(err, &pe) || pe.Kind != polyerr.KindMissingOperation {
		t.Fatalf("expected missing_operation, got %v", err)
	}
	if pe.Op == "" {
		t.Error("resolution failure must name the missing operation")
	}

	if _, err := NewWithRegistry(r, polyCounter, nil); err == nil {
		t.Error("erasing nil must fail")
	}
	if _, err := NewWithRegistry(r, nil, smallCounter{}); err == nil {
		t.Error("nil concept must fail")
	}
}

func TestInvoke_Misuse(t *testing.T) {
	r := newCounterRegistry(t)
	p, err := NewWithRegistry(r, polyCounter, smallCounter{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Call("teleport"); err == nil {
		t.Error("unknown operation must fail")
	}
	var pe *polyerr.Error
	_, err = p.Call("add")
	if !errors.As(err, &pe) || pe.Kind != polyerr.KindArityMismatch {
		t.Errorf("expected arity_mismatch, got %v", err)
	}
	_, err = p.Call("add", "five")
	if !errors.As(err, &pe) || pe.Kind != polyerr.KindTypeMismatch {
		t.Errorf("expected type_mismatch, got %v", err)
	}
}

func TestValueSemantics_CloneEquivalence(t *testing.T) {
	r := newCounterRegistry(t)
	p, err := NewWithRegistry(r, polyCounter, smallCounter{n: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c, err := p.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	// Operating on the copy matches operating on an independent value.
	if _, err := c.Call("increment"); err != nil {
		t.Fatalf("increment clone: %v", err)
	}
	if got := mustValue(t, c); got != 4 {
		t.Errorf("clone value = %d, want 4", got)
	}
	if got := mustValue(t, p); got != 3 {
		t.Errorf("original value = %d, want 3 (clone must be independent)", got)
	}
}

func TestValueSemantics_Move(t *testing.T) {
	r := newCounterRegistry(t)
	p, err := NewWithRegistry(r, polyCounter, bigCounter{n: 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Mode() != storage.ModeHeap {
		t.Fatalf("bigCounter placed %s, want heap", p.Mode())
	}

	addr := p.Self().Pointer()
	m, err := p.Move()
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if m.Self().Pointer() != addr {
		t.Error("heap-backed move must transfer the pointer")
	}
	if p.Valid() {
		t.Error("moved-from wrapper must be invalid")
	}
	if _, err := p.Call("value"); err == nil {
		t.Error("moved-from wrapper must reject operations")
	}
	p.Destroy() // destructible-only state: must not panic

	if got := mustValue(t, m); got != 7 {
		t.Errorf("moved value = %d, want 7", got)
	}
}

func TestValueSemantics_Swap(t *testing.T) {
	r := newCounterRegistry(t)

	// Different concrete types under the same concept.
	a, err := NewWithRegistry(r, polyCounter, smallCounter{n: 1})
	if err != nil {
		t.Fatalf("New small: %v", err)
	}
	b, err := NewWithRegistry(r, polyCounter, bigCounter{n: 2})
	if err != nil {
		t.Fatalf("New big: %v", err)
	}

	if err := Swap(a, b); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if got := mustValue(t, a); got != 2 {
		t.Errorf("a.value = %d, want 2", got)
	}
	if got := mustValue(t, b); got != 1 {
		t.Errorf("b.value = %d, want 1", got)
	}
	if a.Type() != reflect.TypeOf(bigCounter{}) || b.Type() != reflect.TypeOf(smallCounter{}) {
		t.Error("swap must exchange concrete types with values")
	}
}

func TestStorageModeTransparency(t *testing.T) {
	r := newCounterRegistry(t)

	run := func(v any) []int {
		p, err := NewWithRegistry(r, polyCounter, v)
		if err != nil {
			t.Fatalf("New(%T): %v", v, err)
		}
		var out []int
		out = append(out, mustValue(t, p))
		p.Call("increment")
		out = append(out, mustValue(t, p))
		p.Call("add", 40)
		out = append(out, mustValue(t, p))
		c, err := p.Clone()
		if err != nil {
			t.Fatalf("Clone(%T): %v", v, err)
		}
		out = append(out, mustValue(t, c))
		return out
	}

	inline := run(smallCounter{n: 1})
	heap := run(bigCounter{n: 1})
	if !reflect.DeepEqual(inline, heap) {
		t.Errorf("observable behavior differs by placement: inline %v, heap %v", inline, heap)
	}
}

func TestBinaryOperation_SelfArgument(t *testing.T) {
	r := newCounterRegistry(t)
	a, _ := NewWithRegistry(r, polyCounter, smallCounter{n: 5})
	b, _ := NewWithRegistry(r, polyCounter, smallCounter{n: 5})
	c, _ := NewWithRegistry(r, polyCounter, bigCounter{n: 5})

	eq, err := a.Call("equal", b)
	if err != nil {
		t.Fatalf("equal: %v", err)
	}
	if eq != true {
		t.Error("equal counters must compare equal")
	}

	b.Call("increment")
	eq, err = a.Call("equal", b)
	if err != nil {
		t.Fatalf("equal: %v", err)
	}
	if eq != false {
		t.Error("unequal counters must compare unequal")
	}

	// Mixing concrete types in a binary operation is rejected, not UB.
	if _, err := a.Call("equal", c); err == nil {
		t.Error("binary op across concrete types must fail")
	}
}

func TestComparable(t *testing.T) {
	r := newCounterRegistry(t)
	a, _ := NewWithRegistry(r, polyCounter, smallCounter{})
	b, _ := NewWithRegistry(r, polyCounter, smallCounter{})
	c, _ := NewWithRegistry(r, polyCounter, bigCounter{})

	if !Comparable(a, b) {
		t.Error("same type, same map: must be comparable")
	}
	if Comparable(a, c) {
		t.Error("different typed maps must not be comparable")
	}

	d, _ := a.Move()
	if Comparable(a, d) {
		t.Error("moved-from wrapper must not be comparable")
	}
}

// Bindings manufactured through reflect.MakeFunc share one code stub, so
// callable pointers alone cannot tell two types' maps apart. Dispatch and
// comparability must still stay per-type.
func TestMakeFuncBindings_StayPerType(t *testing.T) {
	type dialA struct{ N int64 }
	type dialB struct{ N int64 }

	gauge := concept.MustRequires("polytest.Gauge",
		concept.Op("bump", concept.Fn[func(concept.Self)]()),
		concept.Op("value", concept.Fn[func(concept.Self) int64]()),
	)

	r := bind.NewRegistry()
	register := func(typ reflect.Type) {
		pt := reflect.PointerTo(typ)
		bump := reflect.MakeFunc(
			reflect.FuncOf([]reflect.Type{pt}, nil, false),
			func(args []reflect.Value) []reflect.Value {
				f := args[0].Elem().FieldByName("N")
				f.SetInt(f.Int() + 1)
				return nil
			},
		)
		value := reflect.MakeFunc(
			reflect.FuncOf([]reflect.Type{pt}, []reflect.Type{reflect.TypeOf(int64(0))}, false),
			func(args []reflect.Value) []reflect.Value {
				return []reflect.Value{args[0].Elem().FieldByName("N")}
			},
		)
		err := r.RegisterExplicit(gauge, typ, map[string]bind.Binding{
			"bump":  bind.Func(bump.Interface()),
			"value": bind.Func(value.Interface()),
		})
		if err != nil {
			t.Fatalf("register %s: %v", typ, err)
		}
	}
	register(reflect.TypeOf(dialA{}))
	register(reflect.TypeOf(dialB{}))

	pa, err := NewWithRegistry(r, gauge, dialA{})
	if err != nil {
		t.Fatalf("erase dialA: %v", err)
	}
	pb, err := NewWithRegistry(r, gauge, dialB{})
	if err != nil {
		t.Fatalf("erase dialB: %v", err)
	}

	if Comparable(pa, pb) {
		t.Error("distinct types behind stub-shared callables must not be comparable")
	}

	// Each wrapper must dispatch through its own table; a table leaked
	// across types would panic inside the typed call.
	for _, p := range []*Poly{pa, pb} {
		if _, err := p.Call("bump"); err != nil {
			t.Fatalf("bump %s: %v", p.Type(), err)
		}
		v, err := p.Call("value")
		if err != nil {
			t.Fatalf("value %s: %v", p.Type(), err)
		}
		if v.(int64) != 1 {
			t.Errorf("value = %d, want 1", v)
		}
	}
}

func TestZero_DefaultConstruction(t *testing.T) {
	r := newCounterRegistry(t)
	p, err := ZeroWithRegistry(r, polyCounter, reflect.TypeOf(smallCounter{}))
	if err != nil {
		t.Fatalf("Zero: %v", err)
	}
	if got := mustValue(t, p); got != 0 {
		t.Errorf("default-constructed value = %d, want 0", got)
	}
}
