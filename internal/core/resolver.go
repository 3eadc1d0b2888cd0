package core

// ValidatorFunc validates one cell value for a specific column.
type ValidatorFunc func(value any) Result

// Resolve returns the validator for column under set, or nil when the
// column is unvalidated.
//
// The first rule naming the column wins, in declaration order. If that
// rule is inert the column is unvalidated; later rules for the same
// column are never consulted.
func Resolve(column string, set RuleSet) ValidatorFunc {
	rule, ok := set.RuleFor(column)
	if !ok || rule.IsInert() {
		return nil
	}
	return func(value any) Result {
		return Validate(value, rule)
	}
}

// resolverTable resolves every rule in set once, keyed by column.
// Annotating a dataset reuses one table for all rows.
type resolverTable map[string]ValidatorFunc

func newResolverTable(set RuleSet) resolverTable {
	t := make(resolverTable, len(set.Rules))
	for _, r := range set.Rules {
		if _, seen := t[r.Column]; seen {
			continue
		}
		t[r.Column] = Resolve(r.Column, set)
	}
	return t
}

// validateColumn runs the column's validator and reports the annotation,
// if any. Both Annotate and UpdateCell go through here.
func (t resolverTable) validateColumn(column string, value any) (CellError, bool) {
	return t[column].cellError(value)
}
