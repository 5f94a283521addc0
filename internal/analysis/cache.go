package analysis

import (
	"context"
	"sync"
)

// ModelFactory builds a model handle for a spec.
type ModelFactory func(ctx context.Context, spec ModelSpec) (Model, error)

// ModelCache memoizes model handles by spec for its whole lifetime. It is safe
// for concurrent use; two concurrent misses for one spec may both build, and
// the last one stored wins.
type ModelCache struct {
	mu      sync.RWMutex
	factory ModelFactory
	models  map[ModelSpec]Model
}

// NewModelCache returns an empty cache backed by factory.
func NewModelCache(factory ModelFactory) *ModelCache {
	return &ModelCache{factory: factory, models: make(map[ModelSpec]Model)}
}

// Get returns the cached handle for spec, building it on first use.
func (c *ModelCache) Get(ctx context.Context, spec ModelSpec) (Model, error) {
	c.mu.RLock()
	model, ok := c.models[spec]
	c.mu.RUnlock()
	if ok {
		return model, nil
	}

	model, err := c.factory(ctx, spec)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models[spec] = model
	c.mu.Unlock()
	return model, nil
}

// Len reports how many handles are cached.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
