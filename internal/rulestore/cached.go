package rulestore

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// CachedStore wraps a Store and caches List results.
//
// Every mutation through the CachedStore invalidates the cache. Changes
// made to the underlying store by other processes become visible once
// TTL expires; a TTL of 0 means only mutations invalidate.
type CachedStore struct {
	next Store
	ttl  time.Duration

	mu       sync.RWMutex
	sets     []core.RuleSet
	cachedAt time.Time
	valid    bool
	// gen is bumped by Invalidate. A refresh started under an older
	// generation is not stored.
	gen uint64

	now func() time.Time
}

// NewCachedStore returns a caching decorator over next.
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, ttl: ttl, now: time.Now}
}

// List returns the cached list, refreshing it from the underlying store
// when missing or expired.
func (c *CachedStore) List(ctx context.Context) ([]core.RuleSet, error) {
	sets, gen, ok := c.cached()
	if ok {
		return sets, nil
	}

	sets, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.sets = cloneAll(sets)
		c.cachedAt = c.now()
		c.valid = true
	}
	c.mu.Unlock()

	return sets, nil
}

// Get reads through to the underlying store.
func (c *CachedStore) Get(ctx context.Context, name string) (core.RuleSet, error) {
	return c.next.Get(ctx, name)
}

// Create creates set and invalidates the cache.
func (c *CachedStore) Create(ctx context.Context, set core.RuleSet) (core.RuleSet, error) {
	defer c.Invalidate()
	return c.next.Create(ctx, set)
}

// Update updates the rule set and invalidates the cache.
func (c *CachedStore) Update(ctx context.Context, name string, set core.RuleSet) (core.RuleSet, error) {
	defer c.Invalidate()
	return c.next.Update(ctx, name, set)
}

// Delete deletes the rule set and invalidates the cache.
func (c *CachedStore) Delete(ctx context.Context, name string) error {
	defer c.Invalidate()
	return c.next.Delete(ctx, name)
}

// Invalidate drops the cached list.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.sets = nil
	c.gen++
}

// cached returns the cached list when fresh, and the generation a refresh
// must match to be stored.
func (c *CachedStore) cached() ([]core.RuleSet, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return nil, c.gen, false
	}
	if c.ttl > 0 && c.now().Sub(c.cachedAt) > c.ttl {
		return nil, c.gen, false
	}
	return cloneAll(c.sets), c.gen, true
}

func cloneAll(sets []core.RuleSet) []core.RuleSet {
	out := make([]core.RuleSet, len(sets))
	for i, s := range sets {
		out[i] = s.Clone()
	}
	return out
}
