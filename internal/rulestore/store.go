// Package rulestore persists named rule sets.
//
// The validation engine never writes rule sets; it reads the active one
// through [core.RuleSetSource]. Everything that creates, renames, edits or
// deletes rule sets goes through a [Store] here, and callers revalidate
// their datasets after a change.
package rulestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridrules/internal/core"
)

var (
	// ErrNotFound is returned when no rule set has the requested name.
	ErrNotFound = errors.New("rule set not found")
	// ErrAlreadyExists is returned when a create or rename would reuse a name.
	ErrAlreadyExists = errors.New("rule set already exists")
)

// Store is a named collection of rule sets. Names are unique and
// case-sensitive. List returns rule sets in creation order.
type Store interface {
	List(ctx context.Context) ([]core.RuleSet, error)
	Get(ctx context.Context, name string) (core.RuleSet, error)
	Create(ctx context.Context, set core.RuleSet) (core.RuleSet, error)
	// Update replaces the rule set called name. set.Name may differ from
	// name, which renames it.
	Update(ctx context.Context, name string, set core.RuleSet) (core.RuleSet, error)
	Delete(ctx context.Context, name string) error
}

// Prepare normalizes set the way every store saves it and checks that it
// is storable: the name is trimmed, rules without a color get
// core.DefaultErrorColor, and core.RuleSet.Validate must pass.
func Prepare(set core.RuleSet) (core.RuleSet, error) {
	out := set.Clone()
	out.Name = strings.TrimSpace(out.Name)
	for i := range out.Rules {
		out.Rules[i].Column = strings.TrimSpace(out.Rules[i].Column)
		if out.Rules[i].ErrorColor == "" {
			out.Rules[i].ErrorColor = core.DefaultErrorColor
		}
	}
	if out.Rules == nil {
		out.Rules = []core.Rule{}
	}
	if err := out.Validate(); err != nil {
		return core.RuleSet{}, fmt.Errorf("rule set %q: %w", out.Name, err)
	}
	return out, nil
}

// Source exposes one named rule set of a Store as the engine's active
// rule set.
type Source struct {
	Store Store
	Name  string
}

// ActiveRuleSet implements core.RuleSetSource.
func (s Source) ActiveRuleSet(ctx context.Context) (core.RuleSet, error) {
	if s.Name == "" {
		return core.RuleSet{}, core.ErrNoActiveRuleSet
	}
	return s.Store.Get(ctx, s.Name)
}

func notFound(name string) error {
	return fmt.Errorf("%q: %w", name, ErrNotFound)
}

func alreadyExists(name string) error {
	return fmt.Errorf("%q: %w", name, ErrAlreadyExists)
}
