package vtable

import (
	"reflect"
	"testing"

	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/storage"
)

var vtCounting = concept.MustRequires("vtabletest.Counting",
	concept.Op("increment", concept.Fn[func(concept.Self)]()),
	concept.Op("value", concept.Fn[func(concept.Self) int]()),
)

type tick struct{ N int }

type tock struct{ N int }

// genericBump increments an int field named n through reflection, so a
// single closure serves any conforming type.
var genericBump = bind.Generic(func(args []reflect.Value) []reflect.Value {
	f := args[0].Elem().FieldByName("N")
	f.SetInt(f.Int() + 1)
	return nil
})

var genericRead = bind.Generic(func(args []reflect.Value) []reflect.Value {
	return []reflect.Value{reflect.ValueOf(int(args[0].Elem().FieldByName("N").Int()))}
})

func registerGenericCounting(t *testing.T, r *bind.Registry) {
	t.Helper()
	err := r.RegisterDefault(vtCounting, bind.Default{
		Name: "generic counting",
		Bind: func(reflect.Type) (map[string]bind.Binding, error) {
			return map[string]bind.Binding{"increment": genericBump, "value": genericRead}, nil
		},
	})
	if err != nil {
		t.Fatalf("register default: %v", err)
	}
}

func TestBuild_SlotsDispatch(t *testing.T) {
	r := bind.NewRegistry()
	registerGenericCounting(t, r)

	m, err := r.Resolve(vtCounting, reflect.TypeOf(tick{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := Build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("slots = %d, want 2", v.Len())
	}

	s, err := storage.New(tick{N: 5})
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	inc, ok := v.Slot("increment")
	if !ok {
		t.Fatal("missing increment slot")
	}
	inc.Invoke([]reflect.Value{s.Addr()})
	inc.Invoke([]reflect.Value{s.Addr()})

	val, ok := v.Slot("value")
	if !ok {
		t.Fatal("missing value slot")
	}
	out := val.Invoke([]reflect.Value{s.Addr()})
	if got := out[0].Interface().(int); got != 7 {
		t.Errorf("value = %d, want 7", got)
	}

	if _, ok := v.Slot("teleport"); ok {
		t.Error("unknown slot must not resolve")
	}
}

func TestBuild_DedupAcrossTypes(t *testing.T) {
	r := bind.NewRegistry()
	registerGenericCounting(t, r)

	ma, err := r.Resolve(vtCounting, reflect.TypeOf(tick{}))
	if err != nil {
		t.Fatalf("resolve tick: %v", err)
	}
	mb, err := r.Resolve(vtCounting, reflect.TypeOf(tock{}))
	if err != nil {
		t.Fatalf("resolve tock: %v", err)
	}

	va, err := Build(ma)
	if err != nil {
		t.Fatalf("build tick: %v", err)
	}
	vb, err := Build(mb)
	if err != nil {
		t.Fatalf("build tock: %v", err)
	}

	// Same generic callables, same concept: one shared table.
	if va != vb {
		t.Error("identical shapes must share a table")
	}
	if va.Shape() != mb.Shape() {
		t.Error("table shape must match the map shape")
	}

	// The shared table still dispatches each type against its own storage.
	sa, _ := storage.New(tick{N: 1})
	sb, _ := storage.New(tock{N: 10})
	inc, _ := va.Slot("increment")
	inc.Invoke([]reflect.Value{sa.Addr()})
	inc.Invoke([]reflect.Value{sb.Addr()})
	val, _ := va.Slot("value")
	if got := val.Invoke([]reflect.Value{sa.Addr()})[0].Interface().(int); got != 2 {
		t.Errorf("tick value = %d, want 2", got)
	}
	if got := val.Invoke([]reflect.Value{sb.Addr()})[0].Interface().(int); got != 11 {
		t.Errorf("tock value = %d, want 11", got)
	}
}

func TestBuild_TypedBindingsStayDistinct(t *testing.T) {
	r := bind.NewRegistry()
	tt := reflect.TypeOf(tick{})

	err := r.RegisterExplicit(vtCounting, tt, map[string]bind.Binding{
		"increment": bind.Func(func(x *tick) { x.N += 3 }),
		"value":     bind.Func(func(x *tick) int { return x.N }),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	registerGenericCounting(t, r)

	mTyped, err := r.Resolve(vtCounting, tt)
	if err != nil {
		t.Fatalf("resolve typed: %v", err)
	}
	mGeneric, err := r.Resolve(vtCounting, reflect.TypeOf(tock{}))
	if err != nil {
		t.Fatalf("resolve generic: %v", err)
	}

	vTyped, err := Build(mTyped)
	if err != nil {
		t.Fatalf("build typed: %v", err)
	}
	vGeneric, err := Build(mGeneric)
	if err != nil {
		t.Fatalf("build generic: %v", err)
	}
	if vTyped == vGeneric {
		t.Error("different callables must not share a table")
	}

	s, _ := storage.New(tick{})
	inc, _ := vTyped.Slot("increment")
	inc.Invoke([]reflect.Value{s.Addr()})
	val, _ := vTyped.Slot("value")
	if got := val.Invoke([]reflect.Value{s.Addr()})[0].Interface().(int); got != 3 {
		t.Errorf("typed increment: value = %d, want 3", got)
	}
}

func TestLifecycleEntries(t *testing.T) {
	r := bind.NewRegistry()
	registerGenericCounting(t, r)

	m, err := r.Resolve(vtCounting, reflect.TypeOf(tick{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := Build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	lc := v.Lifecycle()
	s, _ := storage.New(tick{N: 4})

	c, err := lc.Clone(s)
	if err != nil {
		t.Fatalf("lifecycle clone: %v", err)
	}
	c.Addr().Interface().(*tick).N = 8
	if s.Value().Interface().(tick).N != 4 {
		t.Error("lifecycle clone must be independent")
	}

	if err := lc.Swap(s, c); err != nil {
		t.Fatalf("lifecycle swap: %v", err)
	}
	if s.Value().Interface().(tick).N != 8 {
		t.Error("lifecycle swap did not exchange values")
	}

	moved, err := lc.Move(s)
	if err != nil {
		t.Fatalf("lifecycle move: %v", err)
	}
	if s.Valid() {
		t.Error("moved-from storage must be invalid")
	}

	lc.Destroy(moved)
	if moved.Valid() {
		t.Error("destroyed storage must be invalid")
	}
}

func TestStats(t *testing.T) {
	r := bind.NewRegistry()
	registerGenericCounting(t, r)

	m, err := r.Resolve(vtCounting, reflect.TypeOf(tick{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	before := Stats()
	if _, err := Build(m); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := Build(m); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	after := Stats()
	if after.Hits <= before.Hits {
		t.Error("second build of the same shape must count as a cache hit")
	}
}
