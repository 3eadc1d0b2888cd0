// Package ingest turns uploaded CSV files into datasets and writes
// datasets back out for download.
//
// Cell values are kept exactly as written apart from the Excel ="..."
// wrapper, so whitespace-only cells still fail required rules. Headers are
// trimmed and must be unique, non-empty and not collide with the reserved
// annotation keys.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/gridrules/internal/core"
)

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidCSV        = errors.New("invalid csv")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyRows       = errors.New("too many rows")
	ErrEmptyHeader       = errors.New("empty column header")
	ErrDuplicateHeader   = errors.New("duplicate column header")
	ErrReservedHeader    = errors.New("reserved column name")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// utf8BOM is prepended by Excel and other Windows tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls ReadCSV. The zero value reads everything as strings
// with no limits.
type Options struct {
	// InferNumbers stores cells that parse as finite numbers as float64,
	// the way spreadsheet imports type numeric cells.
	InferNumbers bool
	// MaxRows rejects files with more data rows. 0 means unlimited.
	MaxRows int
	// MaxBytes rejects files larger than this. 0 means unlimited.
	MaxBytes int64
}

// ReadCSV parses a CSV file whose first record is the header.
//
// Short records are padded with empty strings and long records are
// truncated to the header width. Records whose cells are all blank are
// skipped.
func ReadCSV(r io.Reader, opts Options) (core.Dataset, error) {
	data, err := readLimited(r, opts.MaxBytes)
	if err != nil {
		return core.Dataset{}, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
	if len(bytes.TrimSpace(data)) == 0 {
		return core.Dataset{}, ErrEmptyFile
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return core.Dataset{}, ErrEmptyFile
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	columns, err := cleanHeader(header)
	if err != nil {
		return core.Dataset{}, err
	}

	var records []map[string]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.Dataset{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(records) >= opts.MaxRows {
			return core.Dataset{}, fmt.Errorf("more than %d rows: %w", opts.MaxRows, ErrTooManyRows)
		}

		values := make(map[string]any, len(columns))
		for i, col := range columns {
			cell := ""
			if i < len(rec) {
				cell = unwrapFormula(rec[i])
			}
			values[col] = ParseCell(cell, opts.InferNumbers)
		}
		records = append(records, values)
	}

	return core.NewDataset(columns, records), nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("exceeds %d bytes: %w", maxBytes, ErrFileTooLarge)
	}
	return data, nil
}

func cleanHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(unwrapFormula(h))
		switch {
		case name == "":
			return nil, fmt.Errorf("column %d: %w", i+1, ErrEmptyHeader)
		case core.IsReservedColumn(name):
			return nil, fmt.Errorf("%q: %w", name, ErrReservedHeader)
		}
		if first, dup := seen[name]; dup {
			return nil, fmt.Errorf("%q in columns %d and %d: %w", name, first+1, i+1, ErrDuplicateHeader)
		}
		seen[name] = i
		columns[i] = name
	}
	return columns, nil
}

// unwrapFormula strips Excel's ="..." text-forcing wrapper.
func unwrapFormula(s string) string {
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return s[2 : len(s)-1]
	}
	return s
}

// ParseCell converts raw cell text the way ReadCSV does. Edits typed in
// the grid go through it too, so they match loaded values.
func ParseCell(cell string, inferNumbers bool) any {
	if !inferNumbers || cell == "" || cell != strings.TrimSpace(cell) {
		return cell
	}
	if f, ok := core.ToNumber(cell); ok {
		// Keep identifiers like 007 or +1 as written.
		if strconv.FormatFloat(f, 'f', -1, 64) == cell {
			return f
		}
	}
	return cell
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Format is a dataset export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a format name to a Format. An empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

// ContentType is the MIME type for f.
func ContentType(f Format) string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Write exports ds in format f.
func Write(w io.Writer, ds core.Dataset, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, ds)
	case FormatJSON:
		return WriteJSON(w, ds)
	default:
		return fmt.Errorf("%q: %w", f, ErrUnsupportedFormat)
	}
}

// WriteCSV writes ds with a header row. Annotations are not exported.
func WriteCSV(w io.Writer, ds core.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			v, _ := row.Value(col)
			record[i] = core.ToText(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes ds as an array of objects holding business values only.
func WriteJSON(w io.Writer, ds core.Dataset) error {
	out := make([]map[string]any, len(ds.Rows))
	for i, row := range ds.Rows {
		out[i] = row.Values()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
