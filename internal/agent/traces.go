// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file contains attempt trace capture: an audit export of prompts,
// raw completions, and outcomes per session. Traces are write-only from
// the loop's point of view; session state never reads them.
package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AttemptTrace is one attempt as exported to the trace file.
type AttemptTrace struct {
	Seq            int    `json:"seq"`
	Failure        string `json:"failure"`
	UserPrompt     string `json:"user_prompt"`
	RawResponse    string `json:"raw_response,omitempty"`
	Source         string `json:"source,omitempty"`
	Error          string `json:"error,omitempty"`
	Discrepancies  int    `json:"discrepancies,omitempty"`
	RateLimitWaits int    `json:"rate_limit_waits,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
}

// SessionTrace is the exported record of one refinement session.
type SessionTrace struct {
	SessionID    string         `json:"session_id"`
	Target       string         `json:"target"`
	Model        string         `json:"model"`
	SystemPrompt string         `json:"system_prompt"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at,omitempty"`
	State        string         `json:"state,omitempty"`
	Provenance   string         `json:"provenance,omitempty"`
	Attempts     []AttemptTrace `json:"attempts"`
}

// TraceCollector accumulates per-session traces and exports them as JSON,
// one file per session.
type TraceCollector struct {
	mu      sync.Mutex
	dir     string
	current map[string]*SessionTrace
}

// NewTraceCollector creates a collector writing under dir.
func NewTraceCollector(dir string) *TraceCollector {
	return &TraceCollector{
		dir:     dir,
		current: make(map[string]*SessionTrace),
	}
}

// Begin opens a trace for a session.
func (tc *TraceCollector) Begin(session *Session, model, systemPrompt string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.current[session.ID] = &SessionTrace{
		SessionID:    session.ID,
		Target:       session.Target,
		Model:        model,
		SystemPrompt: systemPrompt,
		StartedAt:    session.StartedAt,
		Attempts:     []AttemptTrace{},
	}
}

// RecordAttempt mirrors a resolved attempt into the session trace.
func (tc *TraceCollector) RecordAttempt(sessionID string, a Attempt, userPrompt, rawResponse string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	st, ok := tc.current[sessionID]
	if !ok {
		return
	}

	at := AttemptTrace{
		Seq:            a.Seq,
		Failure:        a.Failure.String(),
		UserPrompt:     userPrompt,
		RawResponse:    rawResponse,
		Source:         a.Source,
		Error:          a.Error,
		RateLimitWaits: a.RateLimitWaits,
		DurationMS:     a.Duration.Milliseconds(),
	}
	if a.Report != nil {
		at.Discrepancies = len(a.Report.Discrepancies)
	}
	st.Attempts = append(st.Attempts, at)
}

// Drop discards an in-flight trace without exporting it.
func (tc *TraceCollector) Drop(sessionID string) {
	tc.mu.Lock()
	delete(tc.current, sessionID)
	tc.mu.Unlock()
}

// Finish closes the session trace and writes it to <dir>/<session-id>.json,
// returning the written path. A session without an open trace is a no-op.
func (tc *TraceCollector) Finish(result *RunResult) (string, error) {
	tc.mu.Lock()
	st, ok := tc.current[result.SessionID]
	delete(tc.current, result.SessionID)
	tc.mu.Unlock()

	if !ok {
		return "", nil
	}

	st.FinishedAt = time.Now()
	st.State = result.State.String()
	st.Provenance = result.Provenance

	if err := os.MkdirAll(tc.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create trace directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal trace: %w", err)
	}

	path := filepath.Join(tc.dir, st.SessionID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write trace: %w", err)
	}
	return path, nil
}

// ReadTrace loads an exported session trace. Missing or corrupt files
// yield nil.
func ReadTrace(path string) *SessionTrace {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var st SessionTrace
	if err := json.Unmarshal(data, &st); err != nil {
		return nil
	}
	return &st
}
