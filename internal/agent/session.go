// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file contains the session and attempt records the loop appends to.
package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
	"github.com/Nivasini17/ai-agent-challenge/internal/validate"
)

// Session is one refinement run for one target. The attempt log is
// append-only: entries are recorded when an attempt resolves, in sequence
// order, and never rewritten. An attempt interrupted by cancellation is
// discarded, not recorded.
type Session struct {
	ID          string
	Target      string
	SamplePath  string
	SampleText  string
	Reference   statement.Table
	MaxAttempts int
	StartedAt   time.Time

	Attempts []Attempt
}

// Attempt records one consumed generate-execute-validate slot.
type Attempt struct {
	Seq     int
	Failure FailureKind

	// Source is the sanitized candidate. Empty when generation failed.
	Source string

	// Error carries the oracle or execution failure message.
	Error string

	// Report is set once validation ran, pass or fail.
	Report *validate.Report

	// RateLimitWaits counts backoff waits absorbed before the oracle
	// answered. Waits retry the same attempt and never consume slots.
	RateLimitWaits int

	Duration time.Duration
}

// NewSession creates a session for a loaded sample/reference pair. A
// non-positive maxAttempts defers to the loop's configured budget.
func NewSession(pair *statement.Pair, maxAttempts int) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Target:      pair.Target,
		SamplePath:  pair.SamplePath,
		SampleText:  pair.SampleText,
		Reference:   pair.Reference,
		MaxAttempts: maxAttempts,
		StartedAt:   time.Now(),
	}
}

// record appends a resolved attempt to the session log.
func (s *Session) record(a Attempt) {
	s.Attempts = append(s.Attempts, a)
}

// lastCandidate returns the most recent attempt that produced a candidate,
// or nil. Oracle failures leave no candidate to refine against.
func (s *Session) lastCandidate() *Attempt {
	for i := len(s.Attempts) - 1; i >= 0; i-- {
		if s.Attempts[i].Source != "" {
			return &s.Attempts[i]
		}
	}
	return nil
}

// RunResult is the terminal outcome of Loop.Run. Fallback resolution lives
// here, not in the attempt log: installing a pre-validated parser is a
// resolution step, not an attempt.
type RunResult struct {
	SessionID  string
	Target     string
	State      State
	Provenance string
	Source     string
	Attempts   []Attempt
	Duration   time.Duration
}
