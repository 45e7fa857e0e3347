// Package bind maps concrete Go types onto the operations a concept
// requires: the concept-map layer of the erasure engine.
//
// A binding is a callable for one named operation. Typed bindings are plain
// Go funcs checked structurally against the operation's signature with Self
// substituted by *T:
//
//	bind.RegisterExplicit(InputIterator, reflect.TypeOf(myIter{}), map[string]bind.Binding{
//		"increment": bind.Func(func(it *myIter) { it.pos++ }),
//	})
//
// Default concept maps are providers gated by a compile-time-style predicate
// over the concrete type, evaluated once per type at first resolution:
//
//	bind.RegisterDefault(BidirectionalIterator, bind.Default{
//		Name: "native decrement",
//		When: func(t reflect.Type) bool { return hasPrev(t) },
//		Bind: bindDecrement,
//	})
//
// A default registered for a base concept composes into every refinement:
// resolving a type under RandomAccessIterator merges the defaults of
// Iterator, InputIterator, and so on, then overlays any explicit map for
// the exact pair, and finally checks totality. Precedence is fixed:
// explicit beats default, and among conflicting registrations the later
// one wins; conflicting callables are never merged silently.
//
// Resolution failures are build-time in spirit: they occur before any
// erased instance exists and always name the missing or mismatched
// operation.
package bind
