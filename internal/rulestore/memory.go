package rulestore

import (
	"context"
	"slices"
	"sync"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// MemoryStore keeps rule sets in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	sets  map[string]core.RuleSet
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore) error

// WithSeed preloads rule sets, in order. Invalid or duplicate sets make
// NewMemoryStore fail.
func WithSeed(sets ...core.RuleSet) MemoryOption {
	return func(s *MemoryStore) error {
		for _, set := range sets {
			if _, err := s.Create(context.Background(), set); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewMemoryStore returns an empty store, then applies opts.
func NewMemoryStore(opts ...MemoryOption) (*MemoryStore, error) {
	s := &MemoryStore{sets: make(map[string]core.RuleSet)}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// List returns every rule set in creation order.
func (s *MemoryStore) List(ctx context.Context) ([]core.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.RuleSet, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.sets[name].Clone())
	}
	return out, nil
}

// Get returns the rule set called name.
func (s *MemoryStore) Get(ctx context.Context, name string) (core.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[name]
	if !ok {
		return core.RuleSet{}, notFound(name)
	}
	return set.Clone(), nil
}

// Create adds set. The name must be unused.
func (s *MemoryStore) Create(ctx context.Context, set core.RuleSet) (core.RuleSet, error) {
	prepared, err := Prepare(set)
	if err != nil {
		return core.RuleSet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sets[prepared.Name]; exists {
		return core.RuleSet{}, alreadyExists(prepared.Name)
	}
	s.sets[prepared.Name] = prepared
	s.order = append(s.order, prepared.Name)
	return prepared.Clone(), nil
}

// Update replaces the rule set called name, renaming it in place when
// set.Name differs. The set keeps its position in List.
func (s *MemoryStore) Update(ctx context.Context, name string, set core.RuleSet) (core.RuleSet, error) {
	prepared, err := Prepare(set)
	if err != nil {
		return core.RuleSet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[name]; !ok {
		return core.RuleSet{}, notFound(name)
	}
	if prepared.Name != name {
		if _, taken := s.sets[prepared.Name]; taken {
			return core.RuleSet{}, alreadyExists(prepared.Name)
		}
		delete(s.sets, name)
		s.order[slices.Index(s.order, name)] = prepared.Name
	}
	s.sets[prepared.Name] = prepared
	return prepared.Clone(), nil
}

// Delete removes the rule set called name.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[name]; !ok {
		return notFound(name)
	}
	delete(s.sets, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return nil
}
