package vtable

import (
	"sync"

	"go.uber.org/zap"

	"github.com/polykit/poly/bind"
)

// cache is the process-wide, content-addressed table store, keyed by
// concept-map shape. Tables live for the remainder of the process and are
// referenced, never owned, by wrappers.
var cache = struct {
	mu     sync.RWMutex
	tables map[uint64]*VTable
	hits   uint64
	misses uint64
}{
	tables: make(map[uint64]*VTable),
}

// Build returns the vtable for a resolved concept map, reusing a cached
// table when an identical shape was built before (possibly for a different
// concrete type).
func Build(m *bind.Map) (*VTable, error) {
	shape := m.Shape()

	cache.mu.RLock()
	if v, ok := cache.tables[shape]; ok {
		cache.mu.RUnlock()
		cache.mu.Lock()
		cache.hits++
		cache.mu.Unlock()
		return v, nil
	}
	cache.mu.RUnlock()

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if v, ok := cache.tables[shape]; ok {
		cache.hits++
		return v, nil
	}

	v, err := build(m)
	if err != nil {
		return nil, err
	}
	cache.tables[shape] = v
	cache.misses++

	Logger().Debug("built vtable",
		zap.String("concept", m.Concept().Name()),
		zap.String("type", m.Type().String()),
		zap.Uint64("shape", shape),
		zap.Int("slots", v.Len()))
	return v, nil
}

// CacheStats reports table cache effectiveness: Tables is the number of
// distinct shapes built, Hits counts builds satisfied by sharing.
type CacheStats struct {
	Tables int
	Hits   uint64
	Misses uint64
}

// Stats returns a snapshot of the cache counters.
func Stats() CacheStats {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return CacheStats{
		Tables: len(cache.tables),
		Hits:   cache.hits,
		Misses: cache.misses,
	}
}
