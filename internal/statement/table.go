// Package statement models bank-statement data as it flows through the
// agent: an ordered table of records with named columns, plus loading of
// per-target sample documents and reference CSVs.
package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is an ordered sequence of records with named fields. Rows hold raw
// cell text; normalization for comparison is the validator's concern.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates a table with the given columns and no rows.
func NewTable(columns ...string) Table {
	return Table{Columns: columns}
}

// NumRows returns the number of data rows.
func (t Table) NumRows() int {
	return len(t.Rows)
}

// Cell returns the cell at (row, col), or "" when the row is ragged.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// AppendRow adds a record, padding or truncating to the column count.
func (t *Table) AppendRow(cells ...string) {
	row := make([]string, len(t.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// ToCSV encodes the table as CSV text with the header row first.
func (t Table) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return "", fmt.Errorf("csv: write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("csv: write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv: flush: %w", err)
	}
	return buf.String(), nil
}

// FromCSV decodes CSV text into a table. The first record is the header.
// Short rows are padded to the header width so a sloppy producer still
// yields a comparable table; over-wide rows keep their real width so the
// extra cells show up as discrepancies instead of vanishing.
func FromCSV(text string) (Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("csv: parse: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv: empty input (no header row)")
	}

	t := Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := rec
		if len(rec) < len(t.Columns) {
			row = make([]string, len(t.Columns))
			copy(row, rec)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Excerpt returns the header plus the first maxRows records as CSV text,
// for embedding in oracle prompts.
func (t Table) Excerpt(maxRows int) string {
	if maxRows <= 0 || maxRows > len(t.Rows) {
		maxRows = len(t.Rows)
	}
	head := Table{Columns: t.Columns, Rows: t.Rows[:maxRows]}
	out, err := head.ToCSV()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
