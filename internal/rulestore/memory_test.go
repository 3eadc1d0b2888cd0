package rulestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridrules/internal/core"
)

func namedSet(name string, rules ...core.Rule) core.RuleSet {
	return core.RuleSet{Name: name, Rules: rules}
}

func requiredRule(column string) core.Rule {
	return core.Rule{Column: column, Check: core.Required{}, ErrorMessage: column + " is required"}
}

// storeContract runs the behavior every Store implementation shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, namedSet("  Clients ", requiredRule("name")))
		require.NoError(t, err)
		assert.Equal(t, "Clients", created.Name)
		assert.Equal(t, core.DefaultErrorColor, created.Rules[0].ErrorColor)

		got, err := s.Get(ctx, "Clients")
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("duplicate name", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, namedSet("A"))
		require.NoError(t, err)
		_, err = s.Create(ctx, namedSet("A"))
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("invalid sets rejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, namedSet(""))
		assert.ErrorIs(t, err, core.ErrInvalidRuleSetName)

		_, err = s.Create(ctx, namedSet("dup", requiredRule("x"), requiredRule("x")))
		assert.ErrorIs(t, err, core.ErrDuplicateColumn)
	})

	t.Run("list keeps creation order", func(t *testing.T) {
		s := newStore(t)
		for _, n := range []string{"b", "a", "c"} {
			_, err := s.Create(ctx, namedSet(n))
			require.NoError(t, err)
		}
		sets, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, sets, 3)
		assert.Equal(t, []string{"b", "a", "c"}, []string{sets[0].Name, sets[1].Name, sets[2].Name})
	})

	t.Run("update and rename", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, namedSet("Old", requiredRule("a")))
		require.NoError(t, err)
		_, err = s.Create(ctx, namedSet("Taken"))
		require.NoError(t, err)

		updated, err := s.Update(ctx, "Old", namedSet("New", requiredRule("b")))
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Name)

		_, err = s.Get(ctx, "Old")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.Get(ctx, "New")
		require.NoError(t, err)
		assert.Equal(t, "b", got.Rules[0].Column)

		_, err = s.Update(ctx, "New", namedSet("Taken"))
		assert.ErrorIs(t, err, ErrAlreadyExists)

		_, err = s.Update(ctx, "Missing", namedSet("Missing"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, namedSet("Gone"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "Gone"))
		_, err = s.Get(ctx, "Gone")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "Gone"), ErrNotFound)
	})

	t.Run("returned sets are copies", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, namedSet("Copy", requiredRule("a")))
		require.NoError(t, err)

		got, err := s.Get(ctx, "Copy")
		require.NoError(t, err)
		got.Rules[0].ErrorMessage = "mutated"

		again, err := s.Get(ctx, "Copy")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Rules[0].ErrorMessage)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewMemoryStore()
		require.NoError(t, err)
		return s
	})
}

func TestMemoryStore_RenameKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(WithSeed(namedSet("a"), namedSet("b"), namedSet("c")))
	require.NoError(t, err)

	_, err = s.Update(ctx, "b", namedSet("B"))
	require.NoError(t, err)

	sets, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", sets[1].Name)
}

func TestMemoryStore_InvalidSeed(t *testing.T) {
	_, err := NewMemoryStore(WithSeed(namedSet("x"), namedSet("x")))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCachedStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewMemoryStore()
		require.NoError(t, err)
		return NewCachedStore(s, 0)
	})
}

type countingStore struct {
	Store
	lists int
}

func (c *countingStore) List(ctx context.Context) ([]core.RuleSet, error) {
	c.lists++
	return c.Store.List(ctx)
}

func TestCachedStore_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore(WithSeed(DemoRuleSet()))
	require.NoError(t, err)
	counter := &countingStore{Store: mem}
	cached := NewCachedStore(counter, 0)

	_, err = cached.List(ctx)
	require.NoError(t, err)
	_, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.lists, "second List should hit the cache")

	_, err = cached.Create(ctx, namedSet("Other"))
	require.NoError(t, err)

	sets, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 2)
	assert.Equal(t, 2, counter.lists, "mutation should invalidate the cache")
}

func TestCachedStore_TTL(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore()
	require.NoError(t, err)
	counter := &countingStore{Store: mem}
	cached := NewCachedStore(counter, time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }

	_, err = cached.List(ctx)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counter.lists)

	now = now.Add(time.Minute)
	_, err = cached.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counter.lists, "expired entry should be refreshed")
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore(WithSeed(DemoRuleSet()))
	require.NoError(t, err)

	set, err := Source{Store: mem, Name: DemoRuleSetName}.ActiveRuleSet(ctx)
	require.NoError(t, err)
	assert.Len(t, set.Rules, 3)

	_, err = Source{Store: mem}.ActiveRuleSet(ctx)
	assert.ErrorIs(t, err, core.ErrNoActiveRuleSet)

	_, err = Source{Store: mem, Name: "missing"}.ActiveRuleSet(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore()
	require.NoError(t, err)

	n, err := SeedIfEmpty(ctx, mem, DemoRuleSet())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = SeedIfEmpty(ctx, mem, DemoRuleSet(), namedSet("Extra"))
	require.NoError(t, err)
	assert.Equal(t, 0, n, "populated store must not be seeded again")

	sets, err := mem.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestDemoRuleSet_Valid(t *testing.T) {
	_, err := Prepare(DemoRuleSet())
	require.NoError(t, err)
}

// interleavingStore runs afterList once, after reading but before
// returning, to simulate a mutation racing a cache refresh.
type interleavingStore struct {
	Store
	afterList func()
}

func (s *interleavingStore) List(ctx context.Context) ([]core.RuleSet, error) {
	sets, err := s.Store.List(ctx)
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return sets, err
}

func TestCachedStore_StaleRefreshNotStored(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore(WithSeed(DemoRuleSet()))
	require.NoError(t, err)
	inner := &interleavingStore{Store: mem}
	cached := NewCachedStore(inner, 0)

	inner.afterList = func() {
		_, err := cached.Create(ctx, namedSet("Late"))
		require.NoError(t, err)
	}

	stale, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	sets, err := cached.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sets, 2, "a refresh that raced a mutation must not be cached")
}
