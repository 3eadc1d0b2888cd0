package core

// Result is the outcome of validating one cell against one rule.
// Error and Color are empty when Valid is true.
type Result struct {
	Valid bool
	Error string
	Color string
}

// CellError is the annotation stored for a failing cell.
type CellError struct {
	Error string `json:"error"`
	Color string `json:"color"`
}

// Validate applies rule to value.
//
// It never panics on malformed input: a value of the wrong type fails the
// check like any other bad value. Pattern rules with an expression that
// does not compile pass and log a warning instead.
func Validate(value any, rule Rule) Result {
	if rule.Check == nil || rule.Check.passes(value) {
		return Result{Valid: true}
	}
	return Result{
		Valid: false,
		Error: rule.ErrorMessage,
		Color: rule.ErrorColor,
	}
}

// cellError converts a failing result into the stored annotation.
func (r Result) cellError() (CellError, bool) {
	if r.Valid {
		return CellError{}, false
	}
	return CellError{Error: r.Error, Color: r.Color}, true
}
