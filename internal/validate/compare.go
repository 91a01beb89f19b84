// Package validate compares candidate output against the reference table
// and renders discrepancy reports that drive refinement feedback.
// This file contains the comparison itself and its normalization rules.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

// floatTolerance is the absolute tolerance for numeric cell equality.
const floatTolerance = 1e-9

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeCell trims outer whitespace and collapses internal runs to one
// space. This is the only string-level forgiveness the comparison applies.
func NormalizeCell(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// numericValue parses a cell as a number after comma removal, so
// "1,935.30" and "1935.3" share a value.
func numericValue(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(NormalizeCell(s), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// cellsEqual implements the equivalence relation: normalized string
// equality, or numeric equality within tolerance when both sides parse as
// numbers. Empty equals empty only.
func cellsEqual(expected, actual string) bool {
	ne, na := NormalizeCell(expected), NormalizeCell(actual)
	if ne == na {
		return true
	}
	ve, okE := numericValue(ne)
	va, okA := numericValue(na)
	if okE && okA {
		return math.Abs(ve-va) <= floatTolerance
	}
	return false
}

// canonicalCell maps equivalent cells to one representative for diff
// rendering: numbers in their shortest form, strings normalized.
func canonicalCell(s string) string {
	if v, ok := numericValue(s); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return NormalizeCell(s)
}

func canonicalTable(t statement.Table) statement.Table {
	out := statement.Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = NormalizeCell(c)
	}
	for i, row := range t.Rows {
		out.Rows[i] = make([]string, len(row))
		for j, cell := range row {
			out.Rows[i][j] = canonicalCell(cell)
		}
	}
	return out
}

func renderRow(row []string) string {
	return strings.Join(row, ",")
}

func columnName(columns []string, idx int) string {
	if idx < len(columns) {
		return columns[idx]
	}
	return fmt.Sprintf("#%d", idx+1)
}

// Compare checks the produced table against the reference, structurally and
// order-sensitively. Discrepancies come out in a fixed order: header issues
// first, then cell mismatches top-to-bottom and left-to-right, then missing
// or unexpected rows. Comparing a table against itself always passes with
// zero discrepancies.
func Compare(produced, reference statement.Table) Report {
	var discrepancies []Discrepancy

	// Header.
	if len(produced.Columns) != len(reference.Columns) {
		discrepancies = append(discrepancies, Discrepancy{
			Location: "header",
			Expected: fmt.Sprintf("%d columns (%s)", len(reference.Columns), renderRow(reference.Columns)),
			Actual:   fmt.Sprintf("%d columns (%s)", len(produced.Columns), renderRow(produced.Columns)),
		})
	}
	minCols := len(reference.Columns)
	if len(produced.Columns) < minCols {
		minCols = len(produced.Columns)
	}
	for j := 0; j < minCols; j++ {
		if NormalizeCell(produced.Columns[j]) != NormalizeCell(reference.Columns[j]) {
			discrepancies = append(discrepancies, Discrepancy{
				Location: fmt.Sprintf("header column %d", j+1),
				Expected: reference.Columns[j],
				Actual:   produced.Columns[j],
			})
		}
	}

	// Cells over the shared prefix of rows.
	minRows := len(reference.Rows)
	if len(produced.Rows) < minRows {
		minRows = len(produced.Rows)
	}
	for i := 0; i < minRows; i++ {
		refRow, prodRow := reference.Rows[i], produced.Rows[i]
		width := len(refRow)
		if len(prodRow) < width {
			width = len(prodRow)
		}
		for j := 0; j < width; j++ {
			if !cellsEqual(refRow[j], prodRow[j]) {
				discrepancies = append(discrepancies, Discrepancy{
					Location: fmt.Sprintf("row %d, column %q", i+1, columnName(reference.Columns, j)),
					Expected: refRow[j],
					Actual:   prodRow[j],
				})
			}
		}
		if len(prodRow) != len(refRow) {
			discrepancies = append(discrepancies, Discrepancy{
				Location: fmt.Sprintf("row %d", i+1),
				Expected: fmt.Sprintf("%d cells", len(refRow)),
				Actual:   fmt.Sprintf("%d cells", len(prodRow)),
			})
		}
	}

	// Rows present on one side only.
	for i := minRows; i < len(reference.Rows); i++ {
		discrepancies = append(discrepancies, Discrepancy{
			Location: fmt.Sprintf("row %d", i+1),
			Expected: renderRow(reference.Rows[i]),
			Actual:   "(missing row)",
		})
	}
	for i := minRows; i < len(produced.Rows); i++ {
		discrepancies = append(discrepancies, Discrepancy{
			Location: fmt.Sprintf("row %d", i+1),
			Expected: "(no row)",
			Actual:   renderRow(produced.Rows[i]),
		})
	}

	report := Report{
		Pass:          len(discrepancies) == 0,
		Discrepancies: discrepancies,
		Diff:          cmp.Diff(canonicalTable(reference), canonicalTable(produced)),
	}
	logging.Validate("Compare: pass=%v discrepancies=%d (produced %dx%d vs reference %dx%d)",
		report.Pass, len(discrepancies),
		produced.NumRows(), len(produced.Columns),
		reference.NumRows(), len(reference.Columns))
	return report
}
