// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file builds the oracle prompts: the parser contract in the system
// prompt, the task plus refinement signal in the per-attempt user prompt.
package agent

import (
	"fmt"
	"strings"

	"github.com/Nivasini17/ai-agent-challenge/internal/sandbox"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

// Prompt excerpt caps. Statement layouts repeat, so a few thousand
// characters of sample and a handful of reference rows carry all the
// signal the oracle needs.
const (
	promptSampleMaxChars   = 4000
	promptReferenceMaxRows = 10
)

const systemPromptTemplate = `You are an expert Go developer. You write small, deterministic parsers that turn raw bank statement text into CSV.

CRITICAL REQUIREMENTS:
1. Respond with ONE complete Go file and nothing else - no explanations, no markdown fences
2. The file MUST declare: package main
3. The file MUST define: func %s(input string) (string, error)
4. %s receives the full statement text and returns CSV text: the header row first, then one row per transaction, in document order
5. Use ONLY these imports: %s
6. No file, network, or OS access of any kind
7. Return an error instead of panicking on malformed input
8. Numbers in the output keep their digits but drop thousands separators ("1,935.30" becomes "1935.30")`

const taskPromptTemplate = `Write a Go parser for %q bank statement text.

--- SAMPLE STATEMENT TEXT ---
%s

--- EXPECTED CSV FOR THE SAMPLE (first %d rows) ---
%s

The parser must reproduce the expected CSV exactly: same header, same column order, same row order.`

// systemPrompt renders the parser contract for the oracle.
func systemPrompt(allowedImports []string) string {
	return fmt.Sprintf(systemPromptTemplate,
		sandbox.EntryFunc, sandbox.EntryFunc, strings.Join(allowedImports, ", "))
}

// userPrompt renders the per-attempt prompt. Once a candidate exists, it and
// its failure are appended as refinement signal so the oracle repairs the
// parser instead of regenerating blind. After an oracle failure there is no
// candidate, so the signal comes from the last attempt that produced one.
func (l *Loop) userPrompt(s *Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, taskPromptTemplate,
		s.Target,
		statement.TextExcerpt(s.SampleText, promptSampleMaxChars),
		promptReferenceMaxRows,
		s.Reference.Excerpt(promptReferenceMaxRows))

	prev := s.lastCandidate()
	if prev == nil {
		return b.String()
	}

	b.WriteString("\n\n--- PREVIOUS CODE (DO NOT REPEAT THESE MISTAKES) ---\n")
	b.WriteString(prev.Source)

	switch prev.Failure {
	case FailureExecution:
		b.WriteString("\n\n--- EXECUTION ERROR ---\n")
		b.WriteString(prev.Error)
	case FailureValidation:
		if prev.Report != nil {
			b.WriteString("\n\n--- VALIDATION DISCREPANCIES ---\n")
			b.WriteString(prev.Report.FeedbackText(l.maxFeedback))
		}
	}

	b.WriteString("\n\nFix these problems. Respond with the complete corrected Go file, nothing else.")
	return b.String()
}
