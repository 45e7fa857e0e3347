// Package iterator is the example application of the erasure engine: an
// erased iterator in the shape of the classic iterator hierarchy.
//
// # Concept Family
//
// For each element type E, FamilyFor instantiates five concepts:
//
//	Iterator[E]               increment, dereference
//	InputIterator[E]          + equal
//	ForwardIterator[E]        + default-construct
//	BidirectionalIterator[E]  + decrement
//	RandomAccessIterator[E]   + advance, distance
//
// Default concept maps bind these operations to a concrete iterator's
// native methods (Next, Deref, Equal, Prev, Advance, Distance). The
// decrement and advance/distance maps are conditionally enabled: their
// predicates consult the type's capability tag, so a forward-only
// iterator never sees them and fails cleanly if erased into a target it
// cannot serve.
//
// # Erasure
//
//	xs := []int{1, 2, 3}
//	it, err := iterator.Erase[int](iterator.Forward, iterator.Begin(xs))
//	if err != nil {
//		log.Fatal(err)
//	}
//	it.Next()
//	v, _ := it.Deref() // 2
//
// Erase checks, before building anything, that the source's category is
// at least the target's, that its element type converts to E, and (for
// random-access targets) that its difference type is exactly int; each
// violated property is named in the error.
//
// Comparing two erased iterators requires both to have been erased under
// the same concept map shape; Equal reports a defined incomparable error
// otherwise rather than comparing garbage.
package iterator
