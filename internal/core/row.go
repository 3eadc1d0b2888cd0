package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Reserved keys for engine metadata on the flat wire form of a row.
// Ingestion rejects columns with these names.
const (
	MetaErrorsKey     = "_errors"
	MetaErrorCountKey = "_errorCount"
)

// IsReservedColumn reports whether name collides with engine metadata.
func IsReservedColumn(name string) bool {
	return name == MetaErrorsKey || name == MetaErrorCountKey
}

// Row is one record plus its error annotations.
//
// Rows are values: the engine never changes a Row in place, it returns a
// new one. The error count is always len(errors).
type Row struct {
	values map[string]any
	errors map[string]CellError
}

// NewRow builds an unannotated row. values is copied. The reserved
// metadata keys are dropped, so they are never validated or exported as
// business fields.
func NewRow(values map[string]any) Row {
	out := maps.Clone(values)
	delete(out, MetaErrorsKey)
	delete(out, MetaErrorCountKey)
	return Row{values: out}
}

// Value returns the business value for column.
func (r Row) Value(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the row has a business field named column.
func (r Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Values returns a copy of the business fields with no metadata.
func (r Row) Values() map[string]any {
	out := maps.Clone(r.values)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Columns returns the row's field names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r.values))
	for c := range r.values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Errors returns a copy of the row's annotations.
func (r Row) Errors() map[string]CellError {
	out := maps.Clone(r.errors)
	if out == nil {
		out = map[string]CellError{}
	}
	return out
}

// Error returns the annotation for column, if the cell is failing.
func (r Row) Error(column string) (CellError, bool) {
	e, ok := r.errors[column]
	return e, ok
}

// ErrorCount is the number of failing cells.
func (r Row) ErrorCount() int {
	return len(r.errors)
}

// HasErrors reports whether any cell in the row fails.
func (r Row) HasErrors() bool {
	return len(r.errors) > 0
}

// MarshalJSON writes the flat wire form: business fields plus the
// reserved _errors and _errorCount keys.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.values)+2)
	for k, v := range r.values {
		flat[k] = v
	}
	flat[MetaErrorsKey] = r.Errors()
	flat[MetaErrorCountKey] = r.ErrorCount()
	return json.Marshal(flat)
}

// Annotate validates every business field of row against set and returns
// a new row whose annotations are rebuilt from scratch.
func Annotate(row Row, set RuleSet) Row {
	return annotateWith(row, newResolverTable(set))
}

func annotateWith(row Row, table resolverTable) Row {
	var errs map[string]CellError
	for column, value := range row.values {
		if ce, failed := table.validateColumn(column, value); failed {
			if errs == nil {
				errs = make(map[string]CellError)
			}
			errs[column] = ce
		}
	}
	return Row{values: row.values, errors: errs}
}

// Dataset is an ordered collection of rows sharing Columns.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset builds a dataset from plain records. Columns are taken from
// columns when given, otherwise from the first record in sorted order.
// Reserved metadata names are left out of both.
func NewDataset(columns []string, records []map[string]any) Dataset {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = NewRow(rec)
	}
	if columns == nil && len(rows) > 0 {
		columns = rows[0].Columns()
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if !IsReservedColumn(c) {
			cols = append(cols, c)
		}
	}
	return Dataset{Columns: cols, Rows: rows}
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// Row returns the row at position i.
func (d Dataset) Row(i int) (Row, error) {
	if i < 0 || i >= len(d.Rows) {
		return Row{}, contractErr("row", ErrRowOutOfRange, fmt.Sprintf("row %d of %d", i, len(d.Rows)))
	}
	return d.Rows[i], nil
}

// WithRow returns a copy of d with position i replaced by row.
// The rows slice is copied; rows themselves are shared values.
func (d Dataset) WithRow(i int, row Row) (Dataset, error) {
	if i < 0 || i >= len(d.Rows) {
		return Dataset{}, contractErr("row", ErrRowOutOfRange, fmt.Sprintf("row %d of %d", i, len(d.Rows)))
	}
	rows := make([]Row, len(d.Rows))
	copy(rows, d.Rows)
	rows[i] = row
	return Dataset{Columns: d.Columns, Rows: rows}, nil
}

// TotalErrors sums the error counts of every row.
func (d Dataset) TotalErrors() int {
	total := 0
	for _, r := range d.Rows {
		total += r.ErrorCount()
	}
	return total
}

// Clear returns a copy of d with every annotation removed.
func (d Dataset) Clear() Dataset {
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = Row{values: r.values}
	}
	return Dataset{Columns: d.Columns, Rows: rows}
}
