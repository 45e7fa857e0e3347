// Package errors provides structured error types for the poly library.
//
// Errors are categorized by Phase (where in the erasure pipeline the error
// occurred) and Kind (error category). The Error type includes rich context:
// the named operation, the concept, the concrete Go type, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMissingOperation).
//		Concept("BidirectionalIterator").
//		Op("decrement").
//		GoType("main.forwardIter").
//		Detail("no binding after merging concept maps").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingOperation("BidirectionalIterator", "decrement", "main.forwardIter")
//	err := errors.SignatureConflict(errors.PhaseCompose, "InputIterator", "equal", sigA, sigB)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
