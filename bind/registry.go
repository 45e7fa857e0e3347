package bind

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/errors"
)

// Default is a conditionally enabled default concept map provider.
//
// When is evaluated once per concrete type, at the type's first resolution
// under a matching concept, never per call. A nil When admits every type.
// Bind produces the bindings for an admitted type; it may bind any subset
// of the concept's operations (defaults compose, totality is checked after
// all applicable maps are merged).
type Default struct {
	Name string
	When func(reflect.Type) bool
	Bind func(reflect.Type) (map[string]Binding, error)
}

type pairKey struct {
	c *concept.Concept
	t reflect.Type
}

type registeredDefault struct {
	c *concept.Concept
	d Default
}

// Registry resolves total concept maps for (concept, type) pairs from
// registered defaults and explicit overrides. Thread-safe.
//
// All registration must happen before the first resolution of an affected
// pair; resolved maps are cached and never invalidated.
type Registry struct {
	mu       sync.RWMutex
	defaults []registeredDefault
	explicit map[pairKey]map[string]Binding
	cache    map[pairKey]*Map
}

// NewRegistry creates an empty binding registry.
func NewRegistry() *Registry {
	return &Registry{
		explicit: make(map[pairKey]map[string]Binding),
		cache:    make(map[pairKey]*Map),
	}
}

// RegisterDefault registers a default concept map provider for c. The
// provider also applies to every concept refining c, so a base concept's
// default composes into its refinements.
func (r *Registry) RegisterDefault(c *concept.Concept, d Default) error {
	if c == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil concept")
	}
	if d.Bind == nil {
		return errors.InvalidInput(errors.PhaseRegister, "default map without Bind for "+c.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = append(r.defaults, registeredDefault{c: c, d: d})

	Logger().Debug("registered default concept map",
		zap.String("concept", c.Name()),
		zap.String("default", d.Name))
	return nil
}

// RegisterExplicit registers an override map for the exact (c, t) pair.
// Explicit bindings win over every default; a later explicit registration
// for the same operation wins over an earlier one. Operation names and
// typed signatures are validated immediately, before any instance exists.
func (r *Registry) RegisterExplicit(c *concept.Concept, t reflect.Type, bindings map[string]Binding) error {
	if c == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil concept")
	}
	if t == nil {
		return errors.InvalidInput(errors.PhaseRegister, "nil type for "+c.Name())
	}

	for name, b := range bindings {
		op, ok := c.Operation(name)
		if !ok {
			return errors.Registration(c.Name(), name,
				errors.UnknownOperation(c.Name(), name))
		}
		if err := b.check(op, t); err != nil {
			return errors.Registration(c.Name(), name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{c: c, t: t}
	if r.explicit[key] == nil {
		r.explicit[key] = make(map[string]Binding)
	}
	for name, b := range bindings {
		r.explicit[key][name] = b
	}

	Logger().Debug("registered explicit concept map",
		zap.String("concept", c.Name()),
		zap.String("type", t.String()),
		zap.Int("operations", len(bindings)))
	return nil
}

// Resolve produces the total concept map for t under c, merging every
// applicable default (for c and for each base concept c refines, in
// registration order, later registrations winning) and then overlaying
// explicit bindings for the exact pair. Resolution fails if any operation
// required by c remains unbound, naming the first missing operation.
//
// Results are cached per pair; the predicate of each default is evaluated
// at most once per concrete type.
func (r *Registry) Resolve(c *concept.Concept, t reflect.Type) (*Map, error) {
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "nil concept")
	}
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "nil type for "+c.Name())
	}

	key := pairKey{c: c, t: t}

	r.mu.RLock()
	if m, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[key]; ok {
		return m, nil
	}

	merged := make(map[string]Binding)

	// Defaults registered for c or any base it refines, in registration
	// order so that a later default overrides an earlier one for the same
	// operation name.
	for _, rd := range r.defaults {
		if rd.c != c && !c.Refines(rd.c) {
			continue
		}
		if rd.d.When != nil && !rd.d.When(t) {
			continue
		}
		bindings, err := rd.d.Bind(t)
		if err != nil {
			return nil, errors.New(errors.PhaseResolve, errors.KindRegistration).
				Concept(c.Name()).
				GoType(t.String()).
				Detail("default map %q failed", rd.d.Name).
				Cause(err).
				Build()
		}
		for name, b := range bindings {
			op, ok := c.Operation(name)
			if !ok {
				// A base default may only mention base operations, all of
				// which c requires; anything else is a provider bug.
				return nil, errors.Registration(c.Name(), name,
					errors.UnknownOperation(c.Name(), name))
			}
			if err := b.check(op, t); err != nil {
				return nil, errors.Registration(c.Name(), name, err)
			}
			merged[name] = b
		}
	}

	// Explicit bindings for the exact pair win over every default.
	for name, b := range r.explicit[key] {
		merged[name] = b
	}

	// Totality: every operation the concept requires must be bound.
	for _, op := range c.Operations() {
		if _, ok := merged[op.Name]; !ok {
			return nil, errors.MissingOperation(c.Name(), op.Name, t.String())
		}
	}

	m := &Map{
		c:        c,
		t:        t,
		bindings: merged,
		shape:    computeShape(c.Fingerprint(), t, merged),
	}
	r.cache[key] = m

	Logger().Debug("resolved concept map",
		zap.String("concept", c.Name()),
		zap.String("type", t.String()),
		zap.Uint64("shape", m.shape))
	return m, nil
}

// DefaultsFor returns the names of registered default providers applicable
// to c (registered for c itself or for a base it refines), in registration
// order. Introspection only; predicates are not evaluated.
func (r *Registry) DefaultsFor(c *concept.Concept) []string {
	if c == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, rd := range r.defaults {
		if rd.c == c || c.Refines(rd.c) {
			names = append(names, rd.d.Name)
		}
	}
	return names
}

// global is the process-wide registry used by the package-level functions,
// mirroring the process-wide concept registry.
var global = NewRegistry()

// RegisterDefault registers a default provider in the process-wide registry.
func RegisterDefault(c *concept.Concept, d Default) error {
	return global.RegisterDefault(c, d)
}

// RegisterExplicit registers an explicit override map in the process-wide
// registry.
func RegisterExplicit(c *concept.Concept, t reflect.Type, bindings map[string]Binding) error {
	return global.RegisterExplicit(c, t, bindings)
}

// Resolve resolves against the process-wide registry.
func Resolve(c *concept.Concept, t reflect.Type) (*Map, error) {
	return global.Resolve(c, t)
}

// DefaultsFor lists applicable default providers in the process-wide
// registry.
func DefaultsFor(c *concept.Concept) []string {
	return global.DefaultsFor(c)
}
