// Package poly provides runtime type erasure over named-operation concepts:
// declare an interface as a set of named, signature-typed operations, bind
// any concrete Go type to it through default or explicit concept maps, and
// wrap satisfying values in a uniform, value-semantic dispatcher.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	poly/                Root package: the erased wrapper and its value semantics
//	├── concept/         Named operations, signatures, concept composition
//	├── bind/            Concept maps: defaults, predicates, explicit overrides
//	├── vtable/          Dispatch tables, thunk wrapping, content-addressed dedup
//	├── storage/         Inline-buffer vs heap placement and value lifecycle
//	├── iterator/        Example layer: erased iterators over the concept engine
//	├── errors/          Structured error types for build-time diagnostics
//	└── cmd/inspect/     CLI for browsing declared concepts and cache stats
//
// # Quick Start
//
// Declare a concept, rely on a registered concept map, and erase a value:
//
//	Counter := concept.MustRequires("Counter",
//		concept.Op("increment", concept.Fn[func(concept.Self)]()),
//		concept.Op("value", concept.Fn[func(concept.Self) int]()),
//	)
//
//	bind.RegisterExplicit(Counter, reflect.TypeOf(myCounter{}), map[string]bind.Binding{
//		"increment": bind.Func(func(c *myCounter) { c.n++ }),
//		"value":     bind.Func(func(c *myCounter) int { return c.n }),
//	})
//
//	p, err := poly.New(Counter, myCounter{})
//	if err != nil {
//		log.Fatal(err) // names any unbound operation
//	}
//	p.Call("increment")
//	n, _ := p.Call("value")
//
// # Failure Model
//
// Everything that can be wrong about a binding (a missing operation, a
// signature conflict, an incompatible capability) is detected when the
// concept is composed, the map is registered, or the value is first
// erased: always before an instance exists, and always naming the
// operation or property at fault. Dispatch itself only fails for misuse
// of a live wrapper (unknown name, wrong arity, invalid operand).
//
// # Thread Safety
//
// Concepts and vtables are immutable after construction and freely shared.
// Registries are safe for concurrent use. A Poly instance is NOT
// thread-safe and should be used by a single goroutine, or access must be
// synchronized.
package poly
