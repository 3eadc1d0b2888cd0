// Package core is the rule-based validation engine for tabular data.
//
// It has no knowledge of HTTP, storage or files. Callers hand it rows and
// a rule set and get back annotated rows; every operation returns new
// values and never mutates its inputs.
//
// # Rules
//
// A [Rule] targets one column and carries a [Check], a closed set of
// kinds (required, range, email, minLength, maxLength, pattern, inList,
// startsWith, endsWith, number, text). A rule whose type is empty or
// unrecognized decodes to [Inert] and never fails a cell, so rule sets
// written by newer clients still load.
//
// Rules travel as flat JSON or YAML objects:
//
//	{"column": "Age", "type": "range", "minValue": 18, "maxValue": 100,
//	 "errorMessage": "Age must be 18-100", "errorColor": "#ff0000"}
//
// # Resolution and annotation
//
// [Resolve] returns the validator for a column: the first rule naming the
// column, in declaration order. Columns without a rule are never flagged.
// [Annotate] rebuilds a row's annotations from scratch, storing one
// [CellError] per failing cell. A row's error count is always the number
// of annotations.
//
// # Revalidation and editing
//
// [RevalidateAll] re-annotates a whole [Dataset] when the rule set
// changes, in parallel batches (see [Revalidator]). [UpdateCell] sets one
// value and revalidates only that column; the result always equals what a
// full annotation would produce for that cell.
//
// # Navigation
//
// [Navigator] cycles through the positions of rows with errors, wrapping
// after the last. Rebuild it after revalidation and after any edit where
// [CrossesZero] reports that a row gained its first error or lost its last.
//
// # Error Handling
//
// Misuse of the engine (unknown column, no active rule set, row out of
// range, empty error index) returns a [*ContractError] wrapping a sentinel
// that can be matched with errors.Is. [MapError] turns any error into a
// [UserMessage] with a support code:
//
//   - RULE001-RULE006: rule set definitions and selection
//   - DATA001-DATA008: datasets, rows and cells
//   - FILE001-FILE004: uploaded and exported files
//   - REQ001: malformed API request bodies
//   - UPL002-UPL005, DB004-DB006, RATE001: load, storage and throttling
package core
