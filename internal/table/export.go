package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// WriteCSV writes the table to w as CSV with a header row of column names.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.schema.Names()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j := range row {
			row[j] = t.Text(i, j)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table to w as a JSON array of objects, one per
// record. Keys are emitted in schema order so output is deterministic.
func (t *Table) WriteJSON(w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}

	for i := 0; i < t.NumRows(); i++ {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if err := t.writeJSONRecord(w, i); err != nil {
			return fmt.Errorf("failed to write JSON row %d: %w", i, err)
		}
	}

	_, err := io.WriteString(w, "]")
	return err
}

// writeJSONRecord emits one row as an object with keys in schema order.
// encoding/json alone would sort map keys, losing column order.
func (t *Table) writeJSONRecord(w io.Writer, row int) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}

	for j, col := range t.schema {
		if j > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}

		key, err := json.Marshal(col.Name)
		if err != nil {
			return err
		}
		val, err := json.Marshal(t.cells[row][j])
		if err != nil {
			return err
		}

		if _, err := w.Write(key); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ":"); err != nil {
			return err
		}
		if _, err := w.Write(val); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "}")
	return err
}
