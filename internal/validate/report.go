// Package validate compares candidate output against the reference table
// and renders discrepancy reports that drive refinement feedback.
// This file contains the report types.
package validate

import (
	"fmt"
	"strings"
)

// Discrepancy is a single observed difference between the candidate's
// output and the reference. Expected and Actual carry the original cell
// text, not the normalized form, so feedback shows what was really produced.
type Discrepancy struct {
	Location string // e.g. `row 3, column "Debit Amt"`
	Expected string
	Actual   string
}

// Report is the result of one comparison. Pass is true exactly when the
// discrepancy list is empty. Diff carries a go-cmp rendering of the
// canonicalized tables for logs and traces; it is advisory and never
// feeds the pass decision.
type Report struct {
	Pass          bool
	Discrepancies []Discrepancy
	Diff          string
}

// FeedbackText renders the refinement signal forwarded into the next
// prompt. limit > 0 truncates to the first limit discrepancies and counts
// the rest; limit <= 0 forwards the full list. Returns "" for a passing
// report.
func (r Report) FeedbackText(limit int) string {
	if r.Pass || len(r.Discrepancies) == 0 {
		return ""
	}

	shown := r.Discrepancies
	omitted := 0
	if limit > 0 && len(shown) > limit {
		omitted = len(shown) - limit
		shown = shown[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validation failed with %d discrepancies:\n", len(r.Discrepancies))
	for _, d := range shown {
		fmt.Fprintf(&b, "- %s: expected %q, got %q\n", d.Location, d.Expected, d.Actual)
	}
	if omitted > 0 {
		fmt.Fprintf(&b, "... and %d more\n", omitted)
	}
	return b.String()
}
