package core

import "context"

// RuleSetSource supplies the currently selected rule set.
//
// The engine only reads through this boundary. Creating, renaming,
// editing and deleting rule sets belongs to the store behind it, and the
// engine is told about changes by being asked to revalidate again.
type RuleSetSource interface {
	ActiveRuleSet(ctx context.Context) (RuleSet, error)
}

// StaticSource is a RuleSetSource that always returns the same rule set.
// Useful for CLIs and tests.
type StaticSource struct {
	Set RuleSet
}

// ActiveRuleSet implements RuleSetSource.
func (s StaticSource) ActiveRuleSet(context.Context) (RuleSet, error) {
	return s.Set.Clone(), nil
}
