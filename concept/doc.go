// Package concept declares interfaces as sets of named, signature-typed
// operations, composable by refinement.
//
// An operation is a name plus a structural signature over the Self
// placeholder (the erased type):
//
//	var increment = concept.Op("increment", concept.Fn[func(concept.Self)]())
//	var equal = concept.Op("equal", concept.Fn[func(concept.Self, concept.Self) bool]())
//
// Concepts compose base concepts with their own operations:
//
//	Iterator := concept.MustRequires("Iterator",
//		concept.Op("increment", concept.Fn[func(concept.Self)]()),
//		concept.Op("dereference", concept.Fn[func(concept.Self) int]()),
//	)
//	InputIterator := concept.MustRequires("InputIterator",
//		Iterator,
//		concept.Op("equal", concept.Fn[func(concept.Self, concept.Self) bool]()),
//	)
//
// Merging is a name-keyed union: idempotent, order-independent, and purely
// additive. Declaring the same name with two different signatures anywhere
// in the merged set fails composition with an error naming the operation.
//
// Declared concepts are registered process-wide by name so that bindings,
// tooling, and diagnostics can find them; see Lookup and All.
package concept
