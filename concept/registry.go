package concept

import (
	"sort"
	"sync"

	"github.com/polykit/poly/errors"
)

// registry is the process-wide table of declared concepts, keyed by name.
// Concepts are declared during package initialization and read-only after,
// but registration is still guarded for late declarations (e.g. per-element
// generic concept families built on first use).
var registry = struct {
	mu       sync.RWMutex
	concepts map[string]*Concept
}{
	concepts: make(map[string]*Concept),
}

func register(c *Concept) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if existing, ok := registry.concepts[c.name]; ok {
		// Re-declaring the identical concept is idempotent; a different
		// shape under the same name is rejected.
		if existing.fingerprint != c.fingerprint {
			return errors.Duplicate(errors.PhaseCompose, "concept", c.name)
		}
		return nil
	}
	registry.concepts[c.name] = c
	return nil
}

// Lookup finds a declared concept by name.
func Lookup(name string) (*Concept, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	c, ok := registry.concepts[name]
	return c, ok
}

// All returns every declared concept, sorted by name.
func All() []*Concept {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]*Concept, 0, len(registry.concepts))
	for _, c := range registry.concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
