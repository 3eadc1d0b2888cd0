package core

import (
	"fmt"
	"maps"
)

// UpdateCell sets column to value and revalidates that column only.
//
// The returned row differs from row in exactly one business field and at
// most one annotation. Its annotation for column is always what Annotate
// would produce for the whole row. The column must already exist in the
// row; editing cannot introduce new columns.
func UpdateCell(row Row, column string, value any, set *RuleSet) (Row, error) {
	if set == nil {
		return Row{}, contractErr("update cell", ErrNoActiveRuleSet, "")
	}
	if !row.Has(column) {
		return Row{}, contractErr("update cell", ErrUnknownColumn, fmt.Sprintf("column %q", column))
	}

	values := maps.Clone(row.values)
	values[column] = value

	errs := maps.Clone(row.errors)
	ce, failed := Resolve(column, *set).cellError(value)
	switch {
	case failed:
		if errs == nil {
			errs = make(map[string]CellError, 1)
		}
		errs[column] = ce
	default:
		delete(errs, column)
	}
	if len(errs) == 0 {
		errs = nil
	}

	return Row{values: values, errors: errs}, nil
}

// SetValue replaces column's value without validating it. Existing
// annotations are kept except the one for column, which is dropped since
// it described the old value. Used when no rule set is active.
func SetValue(row Row, column string, value any) (Row, error) {
	if !row.Has(column) {
		return Row{}, contractErr("set value", ErrUnknownColumn, fmt.Sprintf("column %q", column))
	}
	values := maps.Clone(row.values)
	values[column] = value

	errs := maps.Clone(row.errors)
	delete(errs, column)
	if len(errs) == 0 {
		errs = nil
	}
	return Row{values: values, errors: errs}, nil
}

// cellError runs fn if it is non-nil.
func (fn ValidatorFunc) cellError(value any) (CellError, bool) {
	if fn == nil {
		return CellError{}, false
	}
	return fn(value).cellError()
}
