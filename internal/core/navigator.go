package core

// ErrorIndex returns the positions of rows with at least one error, in
// ascending order.
func ErrorIndex(ds Dataset) []int {
	var idx []int
	for i, r := range ds.Rows {
		if r.HasErrors() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Navigator cycles through the error rows of a dataset.
//
// It holds a snapshot of the error index; callers rebuild it after every
// full revalidation and after any cell edit that moves a row's error
// count to or from zero. Rebuilding resets the cursor to the first error.
type Navigator struct {
	index  []int
	cursor int
}

// NewNavigator builds a navigator over ds.
func NewNavigator(ds Dataset) *Navigator {
	n := &Navigator{}
	n.Rebuild(ds)
	return n
}

// Rebuild recomputes the index from ds and resets the cursor.
func (n *Navigator) Rebuild(ds Dataset) {
	n.index = ErrorIndex(ds)
	n.cursor = 0
}

// Next returns the current error row and advances the cursor, wrapping to
// the first error after the last. It returns ErrNoErrorRows when the index
// is empty; callers should hide the action in that case.
func (n *Navigator) Next() (int, error) {
	if len(n.index) == 0 {
		return 0, contractErr("next error", ErrNoErrorRows, "")
	}
	row := n.index[n.cursor]
	n.cursor = (n.cursor + 1) % len(n.index)
	return row, nil
}

// Positions returns a copy of the error index.
func (n *Navigator) Positions() []int {
	return append([]int(nil), n.index...)
}

// Len returns the number of rows with errors.
func (n *Navigator) Len() int {
	return len(n.index)
}

// Cursor returns the position in the index that Next will return.
func (n *Navigator) Cursor() int {
	return n.cursor
}

// CrossesZero reports whether an edit from before to after changes whether
// the row has errors, which is when the index must be rebuilt.
func CrossesZero(before, after Row) bool {
	return before.HasErrors() != after.HasErrors()
}
