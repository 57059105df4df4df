// Package table provides an explicit, ordered representation of tabular
// query results: a schema describing column names and types, plus one record
// per row. Numeric columns are converted from their string form at build
// time; everything else stays string-typed.
//
// This package has no knowledge of where rows come from. It is the target
// shape for API responses whose payloads arrive as 2D string arrays.
package table

import (
	"errors"
	"strconv"
)

// Type is the logical type of a column.
type Type int

const (
	TypeText Type = iota
	TypeNumeric
)

// String returns the type name used in JSON and error messages.
func (t Type) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// MarshalJSON encodes the type as its name.
func (t Type) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON decodes a type from its name.
func (t *Type) UnmarshalJSON(data []byte) error {
	name, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	switch name {
	case "numeric":
		*t = TypeNumeric
	case "text":
		*t = TypeText
	default:
		return errors.New("unknown column type " + strconv.Quote(name))
	}
	return nil
}

// Column describes a single output column.
type Column struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Schema is the ordered list of output columns.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// ConversionError reports a cell that could not be converted to its
// column's declared type. Row is the zero-based index into the rows
// passed to Build.
type ConversionError struct {
	Row    int
	Column string
	Value  string
}

func (e *ConversionError) Error() string {
	return "cannot convert " + strconv.Quote(e.Value) + " to numeric in column " +
		strconv.Quote(e.Column) + " (row " + strconv.Itoa(e.Row) + ")"
}

// WidthError reports a row whose cell count does not match the schema.
type WidthError struct {
	Row  int
	Got  int
	Want int
}

func (e *WidthError) Error() string {
	return "row " + strconv.Itoa(e.Row) + " has " + strconv.Itoa(e.Got) +
		" cells, schema expects " + strconv.Itoa(e.Want)
}

// Table is an immutable set of typed records. Cells hold string for text
// columns and float64 for numeric columns.
type Table struct {
	schema Schema
	cells  [][]any
}

// Build constructs a Table from string rows, converting cells in numeric
// columns to float64. It fails with *WidthError if a row's length differs
// from the schema, and with *ConversionError on the first cell that does
// not parse as a number. No partial table is returned on failure.
func Build(schema Schema, rows [][]string) (*Table, error) {
	cells := make([][]any, len(rows))

	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, &WidthError{Row: i, Got: len(row), Want: len(schema)}
		}

		record := make([]any, len(row))
		for j, raw := range row {
			switch schema[j].Type {
			case TypeNumeric:
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &ConversionError{Row: i, Column: schema[j].Name, Value: raw}
				}
				record[j] = f
			default:
				record[j] = raw
			}
		}
		cells[i] = record
	}

	return &Table{schema: schema, cells: cells}, nil
}

// Schema returns the table's column schema.
func (t *Table) Schema() Schema {
	return t.schema
}

// NumRows returns the number of records.
func (t *Table) NumRows() int {
	return len(t.cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.schema)
}

// Value returns the typed cell at (row, col): string for text columns,
// float64 for numeric columns.
func (t *Table) Value(row, col int) any {
	return t.cells[row][col]
}

// Text returns the cell at (row, col) as a string. Numeric cells are
// formatted with the shortest representation that round-trips.
func (t *Table) Text(row, col int) string {
	switch v := t.cells[row][col].(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}

// Record returns row i as a column-name → value map.
func (t *Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.schema))
	for j, c := range t.schema {
		rec[c.Name] = t.cells[i][j]
	}
	return rec
}

// Records returns all rows as column-name → value maps, in row order.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.NumRows())
	for i := range t.cells {
		out[i] = t.Record(i)
	}
	return out
}

// Equal reports whether two tables have identical schemas and cell values.
func (t *Table) Equal(o *Table) bool {
	if o == nil || len(t.schema) != len(o.schema) || len(t.cells) != len(o.cells) {
		return false
	}
	for i := range t.schema {
		if t.schema[i] != o.schema[i] {
			return false
		}
	}
	for i := range t.cells {
		for j := range t.cells[i] {
			if t.cells[i][j] != o.cells[i][j] {
				return false
			}
		}
	}
	return true
}
