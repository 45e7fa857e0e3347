package concept

import (
	"hash/fnv"
	"sort"

	"github.com/polykit/poly/errors"
)

// Requirement is anything that can appear in a Requires declaration: a base
// Concept to refine, or an Operation of the concept's own.
type Requirement interface {
	isRequirement()
}

// Concept is a named, immutable set of required operations, merged from its
// base concepts and its own declarations. Construction is the only mutation
// point; a built Concept is safe for unsynchronized concurrent reads.
type Concept struct {
	name        string
	ops         map[string]Operation
	bases       []*Concept
	fingerprint uint64
}

func (*Concept) isRequirement() {}

// Requires composes a concept from base concepts and own operations.
//
// Merging is a name-keyed union, idempotent and order-independent: declaring
// the same operation name twice with an identical signature is a no-op;
// declaring it with a different signature fails with a signature_conflict
// error naming the operation. Refinement is purely additive.
//
// The concept is registered under its name in the process-wide registry; a
// second Requires with the same name must produce the same operation set.
func Requires(name string, reqs ...Requirement) (*Concept, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseCompose, "concept name cannot be empty")
	}

	c := &Concept{
		name: name,
		ops:  make(map[string]Operation),
	}

	for _, req := range reqs {
		switch r := req.(type) {
		case *Concept:
			if r == nil {
				return nil, errors.InvalidInput(errors.PhaseCompose, "nil base concept in "+name)
			}
			c.bases = append(c.bases, r)
			for _, op := range r.ops {
				if err := c.merge(op); err != nil {
					return nil, err
				}
			}
		case Operation:
			if r.Name == "" {
				return nil, errors.InvalidInput(errors.PhaseCompose, "unnamed operation in "+name)
			}
			if r.Sig.IsZero() {
				return nil, errors.InvalidInput(errors.PhaseCompose,
					"operation "+r.Name+" in "+name+" has no signature")
			}
			if err := c.merge(r); err != nil {
				return nil, err
			}
		default:
			return nil, errors.InvalidInput(errors.PhaseCompose, "unsupported requirement in "+name)
		}
	}

	c.fingerprint = fingerprintOps(c.ops)

	if err := register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// MustRequires is Requires for package init code; it panics on failure.
func MustRequires(name string, reqs ...Requirement) *Concept {
	c, err := Requires(name, reqs...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Concept) merge(op Operation) error {
	if existing, ok := c.ops[op.Name]; ok {
		if !existing.Sig.Equal(op.Sig) {
			return errors.SignatureConflict(errors.PhaseCompose, c.name, op.Name,
				existing.Sig.String(), op.Sig.String())
		}
		return nil
	}
	c.ops[op.Name] = op
	return nil
}

// Name returns the concept's registered name.
func (c *Concept) Name() string {
	return c.name
}

// Operation looks up a required operation by name.
func (c *Concept) Operation(name string) (Operation, bool) {
	op, ok := c.ops[name]
	return op, ok
}

// Operations returns the merged requirement set, sorted by name.
func (c *Concept) Operations() []Operation {
	ops := make([]Operation, 0, len(c.ops))
	for _, op := range c.ops {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// Len returns the number of required operations after merging.
func (c *Concept) Len() int {
	return len(c.ops)
}

// Bases returns the directly refined base concepts.
func (c *Concept) Bases() []*Concept {
	return c.bases
}

// Refines reports whether c requires every operation of base with an
// identical signature. The relation is structural, reflexive, and
// transitive; it does not depend on how c was declared.
func (c *Concept) Refines(base *Concept) bool {
	if base == nil {
		return false
	}
	for name, op := range base.ops {
		own, ok := c.ops[name]
		if !ok || !own.Sig.Equal(op.Sig) {
			return false
		}
	}
	return true
}

// Fingerprint is a stable hash of the merged (name, signature) set. Two
// concepts with identical requirement sets share a fingerprint regardless
// of declaration order or refinement structure.
func (c *Concept) Fingerprint() uint64 {
	return c.fingerprint
}

func fingerprintOps(ops map[string]Operation) uint64 {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	h := fnv.New64a()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(ops[name].Sig.String()))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
