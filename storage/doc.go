// Package storage implements the placement policy for erased values:
// small, pointer-free values live in a fixed 8-word inline buffer; anything
// else gets its own heap allocation. Both modes expose the same "address of
// the held value" operation, so the dispatch layer never cares where a
// value lives.
//
// Placement is decided once, at construction, from the concrete type's
// size, alignment, and pointer content. The pointer-free requirement exists
// because the garbage collector sees the inline buffer as raw words:
// pointers parked there would be invisible to it, so pointer-bearing types
// are heap-placed where the collector can trace them.
//
// Lifecycle follows the mode: inline values copy and move by relocating
// bytes; heap values copy by allocating and cloning, and move by
// transferring the owning pointer. Destroy calls the optional Disposer
// hook, then zeroes and releases the slot. Swap exchanges held values
// between two storages even when they hold different concrete types.
package storage
