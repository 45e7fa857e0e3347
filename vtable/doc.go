// Package vtable builds the dispatch tables behind erased values: one slot
// per named operation, wrapping the bound callable into a uniform thunk,
// plus the lifecycle entries (clone, move, destroy, swap) the wrapper uses
// to manage storage it cannot see into.
//
// Tables are content-addressed by concept-map shape and cached for the
// life of the process. Two concrete types erased through the same generic
// default map produce the same shape and share one table; the sharing is a
// static-footprint optimization and is never observable through the
// wrapper, which compares shapes rather than table identities.
package vtable
