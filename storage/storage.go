package storage

import (
	"reflect"
	"unsafe"

	"github.com/polykit/poly/errors"
)

const (
	// inlineWords is the inline buffer size in 64-bit words. A word-typed
	// buffer keeps the placement address 8-aligned wherever the struct
	// lands.
	inlineWords = 8
	// InlineCapacity is the size of the inline buffer in bytes.
	InlineCapacity = inlineWords * 8
	// MaxInlineAlign is the strictest alignment the inline buffer honors.
	MaxInlineAlign = 8
)

// Mode identifies where a held value lives.
type Mode uint8

const (
	// ModeInline places the value in the storage's fixed buffer.
	ModeInline Mode = iota + 1
	// ModeHeap places the value in its own allocation; moves transfer the
	// pointer instead of relocating bytes.
	ModeHeap
)

func (m Mode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	case ModeHeap:
		return "heap"
	default:
		return "empty"
	}
}

// Disposer is the optional destroy hook: a held value implementing it (on
// its pointer receiver) is disposed before its storage is released.
type Disposer interface {
	Dispose()
}

// Storage owns one concrete value behind a uniform address operation,
// either in its inline buffer or in a heap allocation. Storage values are
// always handled by pointer; the inline buffer must not be copied around by
// the runtime, so constructors return *Storage and the struct stays on the
// heap.
type Storage struct {
	val  reflect.Value // addressable view of the held value
	typ  reflect.Type
	mode Mode
	buf  [inlineWords]uint64
}

// Fits reports whether values of t are placed inline: the footprint must
// meet the buffer's size and alignment limits and the type must be
// pointer-free, since the garbage collector does not scan the raw buffer.
// Pointer-bearing types always go to the heap.
func Fits(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return t.Size() <= InlineCapacity && uintptr(t.Align()) <= MaxInlineAlign && pointerFree(t)
}

// New places a copy of v into fresh storage, choosing inline or heap
// placement by the policy in Fits.
func New(v any) (*Storage, error) {
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseStorage, "cannot store a nil value")
	}
	rv := reflect.ValueOf(v)
	s := alloc(rv.Type())
	s.val.Set(rv)
	return s, nil
}

// Zero creates storage holding the zero value of t. Used for
// default-construction of erased values.
func Zero(t reflect.Type) (*Storage, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseStorage, "cannot store the nil type")
	}
	return alloc(t), nil
}

func alloc(t reflect.Type) *Storage {
	s := &Storage{typ: t}
	if Fits(t) {
		s.mode = ModeInline
		s.val = reflect.NewAt(t, unsafe.Pointer(&s.buf[0])).Elem()
	} else {
		s.mode = ModeHeap
		s.val = reflect.New(t).Elem()
	}
	return s
}

// Valid reports whether the storage currently holds a value. Destroyed and
// moved-from storage is invalid.
func (s *Storage) Valid() bool {
	return s != nil && s.mode != 0
}

// Mode returns the placement of the held value.
func (s *Storage) Mode() Mode {
	if s == nil {
		return 0
	}
	return s.mode
}

// Type returns the concrete type of the held value.
func (s *Storage) Type() reflect.Type {
	return s.typ
}

// Addr returns a pointer to the held value (*T as a reflect.Value),
// uniform across placement modes.
func (s *Storage) Addr() reflect.Value {
	return s.val.Addr()
}

// Value returns the addressable held value.
func (s *Storage) Value() reflect.Value {
	return s.val
}

// Clone copies the held value into fresh storage of the same mode. Inline
// values copy by relocating bytes; heap values copy by allocating and
// cloning, with Go assignment semantics.
func (s *Storage) Clone() (*Storage, error) {
	if !s.Valid() {
		return nil, errors.NotInitialized("storage")
	}
	out := alloc(s.typ)
	out.val.Set(s.val)
	return out, nil
}

// Move transfers the held value into fresh storage and leaves s empty.
// Heap-backed values move by pointer transfer; inline values relocate
// bytes. Either way the source is only emptied, never disposed: the
// destination now owns the value and any Disposer hook fires on its
// destruction alone.
func (s *Storage) Move() (*Storage, error) {
	if !s.Valid() {
		return nil, errors.NotInitialized("storage")
	}
	if s.mode == ModeHeap {
		out := &Storage{typ: s.typ, mode: ModeHeap, val: s.val}
		s.clear()
		return out, nil
	}
	out := alloc(s.typ)
	out.val.Set(s.val)
	s.clear()
	return out, nil
}

// Swap exchanges the held values of a and b, preserving each operand's
// placement mode. The operands may hold different concrete types.
func Swap(a, b *Storage) error {
	if !a.Valid() || !b.Valid() {
		return errors.NotInitialized("storage")
	}

	a.mode, b.mode = b.mode, a.mode
	a.typ, b.typ = b.typ, a.typ
	a.buf, b.buf = b.buf, a.buf
	a.val, b.val = b.val, a.val

	// Inline views point into their own buffer; rebind them after the
	// byte exchange.
	if a.mode == ModeInline {
		a.val = reflect.NewAt(a.typ, unsafe.Pointer(&a.buf[0])).Elem()
	}
	if b.mode == ModeInline {
		b.val = reflect.NewAt(b.typ, unsafe.Pointer(&b.buf[0])).Elem()
	}
	return nil
}

// Destroy disposes the held value (via Disposer when implemented) and
// releases the storage. Destroy on empty storage is a no-op.
func (s *Storage) Destroy() {
	if !s.Valid() {
		return
	}
	if d, ok := s.val.Addr().Interface().(Disposer); ok {
		d.Dispose()
	}
	s.val.SetZero()
	s.clear()
}

func (s *Storage) clear() {
	s.mode = 0
	s.typ = nil
	s.val = reflect.Value{}
	s.buf = [inlineWords]uint64{}
}

// pointerFree reports whether values of t contain no pointers the garbage
// collector would need to trace.
func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
