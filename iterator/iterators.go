package iterator

// Concrete iterators used as erasure sources by the examples, the tests,
// and the inspect CLI. Each exposes the native capability methods the
// default concept maps discover (Next, Deref, Equal, Prev, Advance,
// Distance) and declares its tag via Category.

// SliceIter is a random-access iterator over a slice. It carries the
// slice header, so it is always heap-placed when erased.
type SliceIter[E any] struct {
	xs  []E
	pos int
}

// Begin returns an iterator at the first element of xs.
func Begin[E any](xs []E) SliceIter[E] {
	return SliceIter[E]{xs: xs}
}

// End returns the past-the-end iterator of xs.
func End[E any](xs []E) SliceIter[E] {
	return SliceIter[E]{xs: xs, pos: len(xs)}
}

func (it *SliceIter[E]) Category() Category { return RandomAccess }

func (it *SliceIter[E]) Next()         { it.pos++ }
func (it *SliceIter[E]) Prev()         { it.pos-- }
func (it *SliceIter[E]) Advance(n int) { it.pos += n }
func (it *SliceIter[E]) Deref() E      { return it.xs[it.pos] }

// Equal reports whether both iterators denote the same position of the
// same slice.
func (it *SliceIter[E]) Equal(other *SliceIter[E]) bool {
	if it.pos != other.pos || len(it.xs) != len(other.xs) {
		return false
	}
	return len(it.xs) == 0 || &it.xs[0] == &other.xs[0]
}

// Distance returns the number of positions from it to other.
func (it *SliceIter[E]) Distance(other *SliceIter[E]) int {
	return other.pos - it.pos
}

// listNode is a node of List.
type listNode[E any] struct {
	value      E
	prev, next *listNode[E]
}

// List is a minimal doubly-linked list whose iterators are bidirectional.
// The sentinel closes the ring, so End is decrementable like the
// container iterators the erased wrapper is modeled after.
type List[E any] struct {
	sentinel *listNode[E]
	size     int
}

// NewList builds a list holding the given elements in order.
func NewList[E any](elems ...E) *List[E] {
	s := &listNode[E]{}
	s.prev, s.next = s, s
	l := &List[E]{sentinel: s}
	for _, e := range elems {
		l.PushBack(e)
	}
	return l
}

// PushBack appends an element.
func (l *List[E]) PushBack(v E) {
	n := &listNode[E]{value: v, prev: l.sentinel.prev, next: l.sentinel}
	l.sentinel.prev.next = n
	l.sentinel.prev = n
	l.size++
}

// Len returns the element count.
func (l *List[E]) Len() int { return l.size }

// Begin returns an iterator at the first element.
func (l *List[E]) Begin() ListIter[E] {
	return ListIter[E]{node: l.sentinel.next}
}

// End returns the past-the-end iterator.
func (l *List[E]) End() ListIter[E] {
	return ListIter[E]{node: l.sentinel}
}

// ListIter is a bidirectional iterator over a List.
type ListIter[E any] struct {
	node *listNode[E]
}

func (it *ListIter[E]) Category() Category { return Bidirectional }

func (it *ListIter[E]) Next()    { it.node = it.node.next }
func (it *ListIter[E]) Prev()    { it.node = it.node.prev }
func (it *ListIter[E]) Deref() E { return it.node.value }

func (it *ListIter[E]) Equal(other *ListIter[E]) bool {
	return it.node == other.node
}

// CountingIter is a forward-only iterator over the integers starting at a
// given value. Pointer-free and a single word, it always lands in the
// inline buffer when erased.
type CountingIter struct {
	N int64
}

func (it *CountingIter) Category() Category { return Forward }

func (it *CountingIter) Next()        { it.N++ }
func (it *CountingIter) Deref() int64 { return it.N }

func (it *CountingIter) Equal(other *CountingIter) bool {
	return it.N == other.N
}
