package rulestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// DemoRuleSetName is the name of the rule set returned by DemoRuleSet.
const DemoRuleSetName = "Demo"

// DemoRuleSet returns a small rule set for client files: Age between 18
// and 100, a valid client_email and a non-empty client_name.
func DemoRuleSet() core.RuleSet {
	minAge, maxAge := 18.0, 100.0
	return core.RuleSet{
		Name: DemoRuleSetName,
		Rules: []core.Rule{
			{
				Column:       "Age",
				Check:        core.Range{Min: &minAge, Max: &maxAge},
				ErrorMessage: "Age must be between 18 and 100",
				ErrorColor:   core.DefaultErrorColor,
			},
			{
				Column:       "client_email",
				Check:        core.Email{},
				ErrorMessage: "Invalid email format",
				ErrorColor:   "#ff9900",
			},
			{
				Column:       "client_name",
				Check:        core.Required{},
				ErrorMessage: "Client name is required",
				ErrorColor:   core.DefaultErrorColor,
			},
		},
	}
}

// SeedIfEmpty creates sets in store when the store has no rule sets yet.
// It returns the number of sets created.
func SeedIfEmpty(ctx context.Context, store Store, sets ...core.RuleSet) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		slog.Debug("rule store already populated, skipping seed", "rule_sets", len(existing))
		return 0, nil
	}

	created := 0
	for _, set := range sets {
		if _, err := store.Create(ctx, set); err != nil {
			// Another instance may have seeded concurrently.
			if errors.Is(err, ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed %q: %w", set.Name, err)
		}
		created++
	}

	slog.Info("seeded rule store", "rule_sets", created)
	return created, nil
}
