package validate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

func referenceTable() statement.Table {
	t := statement.NewTable("Date", "Description", "Debit Amt", "Credit Amt", "Balance")
	t.AppendRow("01-08-2024", "Salary Credit", "", "1,935.30", "1,935.30")
	t.AppendRow("03-08-2024", "ATM Withdrawal", "500.00", "", "1,435.30")
	t.AppendRow("05-08-2024", "UPI Payment", "120.50", "", "1,314.80")
	return t
}

func TestCompare_Identical(t *testing.T) {
	ref := referenceTable()

	report := Compare(ref, ref)
	if !report.Pass {
		t.Fatalf("self-comparison must pass, got discrepancies: %v", report.Discrepancies)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("expected zero discrepancies, got %d", len(report.Discrepancies))
	}
	if report.Diff != "" {
		t.Errorf("expected empty diff, got:\n%s", report.Diff)
	}
}

func TestCompare_NumericEquivalence(t *testing.T) {
	ref := referenceTable()

	produced := statement.NewTable("Date", "Description", "Debit Amt", "Credit Amt", "Balance")
	produced.AppendRow("01-08-2024", "Salary Credit", "", "1935.3", "1935.30")
	produced.AppendRow("03-08-2024", "ATM Withdrawal", "500", "", "1435.3")
	produced.AppendRow("05-08-2024", "UPI Payment", "120.50", "", "1314.8")

	report := Compare(produced, ref)
	if !report.Pass {
		t.Fatalf("comma and trailing-zero differences must not fail validation: %v", report.Discrepancies)
	}
}

func TestCompare_WhitespaceNormalization(t *testing.T) {
	ref := statement.NewTable("Date", "Description")
	ref.AppendRow("01-08-2024", "Salary Credit")

	produced := statement.NewTable("Date", " Description ")
	produced.AppendRow("01-08-2024", "  Salary   Credit ")

	report := Compare(produced, ref)
	if !report.Pass {
		t.Fatalf("whitespace runs must normalize away: %v", report.Discrepancies)
	}
}

func TestCompare_CellMismatch(t *testing.T) {
	ref := referenceTable()

	produced := referenceTable()
	produced.Rows[1][4] = "9999.99"

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("expected failure")
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected exactly one discrepancy, got %v", report.Discrepancies)
	}

	want := Discrepancy{
		Location: `row 2, column "Balance"`,
		Expected: "1,435.30",
		Actual:   "9999.99",
	}
	if diff := cmp.Diff(want, report.Discrepancies[0]); diff != "" {
		t.Errorf("discrepancy mismatch (-want +got):\n%s", diff)
	}
	if report.Diff == "" {
		t.Error("expected a non-empty diff rendering")
	}
}

func TestCompare_MissingRows(t *testing.T) {
	ref := referenceTable()

	produced := statement.NewTable("Date", "Description", "Debit Amt", "Credit Amt", "Balance")
	produced.AppendRow("01-08-2024", "Salary Credit", "", "1,935.30", "1,935.30")

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("expected failure")
	}
	if len(report.Discrepancies) != 2 {
		t.Fatalf("expected two missing-row discrepancies, got %v", report.Discrepancies)
	}
	if report.Discrepancies[0].Location != "row 2" || report.Discrepancies[0].Actual != "(missing row)" {
		t.Errorf("unexpected first discrepancy: %+v", report.Discrepancies[0])
	}
	if !strings.Contains(report.Discrepancies[0].Expected, "ATM Withdrawal") {
		t.Errorf("missing-row discrepancy should show the reference row: %+v", report.Discrepancies[0])
	}
}

func TestCompare_UnexpectedRows(t *testing.T) {
	ref := statement.NewTable("Date", "Description")
	ref.AppendRow("01-08-2024", "Salary Credit")

	produced := statement.NewTable("Date", "Description")
	produced.AppendRow("01-08-2024", "Salary Credit")
	produced.AppendRow("02-08-2024", "Phantom Entry")

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("expected failure")
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected one discrepancy, got %v", report.Discrepancies)
	}
	d := report.Discrepancies[0]
	if d.Location != "row 2" || d.Expected != "(no row)" || !strings.Contains(d.Actual, "Phantom Entry") {
		t.Errorf("unexpected discrepancy: %+v", d)
	}
}

func TestCompare_HeaderMismatch(t *testing.T) {
	ref := statement.NewTable("Date", "Description", "Balance")

	produced := statement.NewTable("Date", "Narration", "Balance")

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("expected failure")
	}
	d := report.Discrepancies[0]
	if d.Location != "header column 2" || d.Expected != "Description" || d.Actual != "Narration" {
		t.Errorf("unexpected header discrepancy: %+v", d)
	}
}

func TestCompare_ColumnCountMismatch(t *testing.T) {
	ref := statement.NewTable("Date", "Description", "Balance")
	produced := statement.NewTable("Date", "Description")

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("expected failure")
	}
	if report.Discrepancies[0].Location != "header" {
		t.Errorf("column count mismatch should be the first discrepancy, got %+v", report.Discrepancies[0])
	}
}

func TestCompare_OverWideDecodedRow(t *testing.T) {
	ref := statement.NewTable("Date", "Description", "Balance")
	ref.AppendRow("01-08-2024", "Salary Credit", "1,935.30")

	// Decoded candidate output with a trailing extra cell must fail, not
	// have the extra cell silently dropped.
	produced, err := statement.FromCSV("Date,Description,Balance\n01-08-2024,Salary Credit,\"1,935.30\",JUNK\n")
	if err != nil {
		t.Fatalf("FromCSV error: %v", err)
	}

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal("row with an extra cell must fail validation")
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected one width discrepancy, got %v", report.Discrepancies)
	}
	d := report.Discrepancies[0]
	if d.Location != "row 1" || d.Expected != "3 cells" || d.Actual != "4 cells" {
		t.Errorf("unexpected discrepancy: %+v", d)
	}
}

func TestCompare_EmptyTables(t *testing.T) {
	ref := statement.NewTable("Date", "Description")
	produced := statement.NewTable("Date", "Description")

	report := Compare(produced, ref)
	if !report.Pass {
		t.Fatalf("two empty tables with matching headers must pass: %v", report.Discrepancies)
	}
}

func TestCompare_EmptyCellVsValue(t *testing.T) {
	ref := statement.NewTable("Debit Amt")
	ref.AppendRow("")

	produced := statement.NewTable("Debit Amt")
	produced.AppendRow("0")

	report := Compare(produced, ref)
	if report.Pass {
		t.Fatal(`empty equals empty only; "" vs "0" must fail`)
	}
}

func TestCompare_DiscrepancyOrder(t *testing.T) {
	ref := referenceTable()

	produced := referenceTable()
	produced.Rows[0][1] = "Wrong A"
	produced.Rows[0][4] = "0.01"
	produced.Rows[2][0] = "31-12-1999"

	report := Compare(produced, ref)
	if len(report.Discrepancies) != 3 {
		t.Fatalf("expected three discrepancies, got %v", report.Discrepancies)
	}
	wantOrder := []string{
		`row 1, column "Description"`,
		`row 1, column "Balance"`,
		`row 3, column "Date"`,
	}
	for i, want := range wantOrder {
		if report.Discrepancies[i].Location != want {
			t.Errorf("discrepancy %d: want location %q, got %q", i, want, report.Discrepancies[i].Location)
		}
	}
}

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Salary   Credit ", "Salary Credit"},
		{"already clean", "already clean"},
		{"\ttabs\tand\nnewlines\t", "tabs and newlines"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCell(tt.in); got != tt.want {
			t.Errorf("NormalizeCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCellsEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{"exact", "Salary", "Salary", true},
		{"comma number", "1,935.30", "1935.3", true},
		{"integer forms", "500.00", "500", true},
		{"distinct numbers", "500.00", "500.01", false},
		{"date is not numeric", "01-08-2024", "1-8-2024", false},
		{"empty both", "", "", true},
		{"empty vs zero", "", "0", false},
		{"case sensitive", "salary", "Salary", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellsEqual(tt.expected, tt.actual); got != tt.want {
				t.Errorf("cellsEqual(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestFeedbackText(t *testing.T) {
	report := Report{
		Pass: false,
		Discrepancies: []Discrepancy{
			{Location: "row 1, column \"Balance\"", Expected: "1", Actual: "2"},
			{Location: "row 2, column \"Balance\"", Expected: "3", Actual: "4"},
			{Location: "row 3, column \"Balance\"", Expected: "5", Actual: "6"},
		},
	}

	full := report.FeedbackText(0)
	if !strings.Contains(full, "3 discrepancies") {
		t.Errorf("expected count in feedback, got:\n%s", full)
	}
	if strings.Count(full, "- row") != 3 {
		t.Errorf("expected all three rows in full feedback, got:\n%s", full)
	}

	truncated := report.FeedbackText(2)
	if strings.Count(truncated, "- row") != 2 {
		t.Errorf("expected two rows in truncated feedback, got:\n%s", truncated)
	}
	if !strings.Contains(truncated, "and 1 more") {
		t.Errorf("expected omission marker, got:\n%s", truncated)
	}

	passing := Report{Pass: true}
	if passing.FeedbackText(0) != "" {
		t.Error("passing report must render empty feedback")
	}
}
