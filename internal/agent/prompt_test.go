package agent

import (
	"strings"
	"testing"

	"github.com/Nivasini17/ai-agent-challenge/internal/sandbox"
	"github.com/Nivasini17/ai-agent-challenge/internal/validate"
)

func TestSystemPrompt(t *testing.T) {
	got := systemPrompt([]string{"strings", "strconv"})

	for _, want := range []string{
		"package main",
		"func " + sandbox.EntryFunc + "(input string) (string, error)",
		"strings, strconv",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestUserPrompt_FirstAttempt(t *testing.T) {
	loop := testLoop(&MockOracleClient{}, Config{})
	session := testSession("icici", 3)

	got := loop.userPrompt(session)

	if !strings.Contains(got, `"icici"`) {
		t.Error("prompt should name the target")
	}
	if !strings.Contains(got, "01-08-2024 COFFEE 4.50") {
		t.Error("prompt should include the sample text")
	}
	if !strings.Contains(got, "Date,Description,Amount") {
		t.Error("prompt should include the reference CSV header")
	}
	if strings.Contains(got, "--- PREVIOUS CODE") {
		t.Error("first prompt must not carry refinement sections")
	}
}

func TestUserPrompt_AfterValidationFailure(t *testing.T) {
	loop := testLoop(&MockOracleClient{}, Config{})
	session := testSession("icici", 3)
	session.record(Attempt{
		Seq:     1,
		Failure: FailureValidation,
		Source:  "package main\n\n// broken parser",
		Report: &validate.Report{
			Discrepancies: []validate.Discrepancy{
				{Location: `row 3, column "Amount"`, Expected: "900.00", Actual: "9.00"},
			},
		},
	})

	got := loop.userPrompt(session)

	if !strings.Contains(got, "--- PREVIOUS CODE (DO NOT REPEAT THESE MISTAKES) ---") {
		t.Error("prompt should carry the previous candidate section")
	}
	if !strings.Contains(got, "// broken parser") {
		t.Error("prompt should carry the previous candidate source")
	}
	if !strings.Contains(got, "--- VALIDATION DISCREPANCIES ---") {
		t.Error("prompt should carry the discrepancy section")
	}
	if !strings.Contains(got, `row 3, column "Amount"`) {
		t.Error("prompt should carry the discrepancy location")
	}
}

func TestUserPrompt_AfterExecutionFailure(t *testing.T) {
	loop := testLoop(&MockOracleClient{}, Config{})
	session := testSession("icici", 3)
	session.record(Attempt{
		Seq:     1,
		Failure: FailureExecution,
		Source:  "package main\n\n// crashing parser",
		Error:   "candidate returned error: no transactions found",
	})

	got := loop.userPrompt(session)

	if !strings.Contains(got, "--- EXECUTION ERROR ---") {
		t.Error("prompt should carry the execution error section")
	}
	if !strings.Contains(got, "no transactions found") {
		t.Error("prompt should carry the execution error message")
	}
	if strings.Contains(got, "--- VALIDATION DISCREPANCIES ---") {
		t.Error("execution failures have no discrepancy section")
	}
}
