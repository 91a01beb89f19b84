// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file defines the loop state machine and the attempt failure taxonomy.
package agent

// State identifies where in the refinement loop a session currently is.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateExecuting
	StateValidating
	StateSucceeded
	StateRetrying
	StateExhausted
	StateFallingBack
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGenerating:
		return "Generating"
	case StateExecuting:
		return "Executing"
	case StateValidating:
		return "Validating"
	case StateSucceeded:
		return "Succeeded"
	case StateRetrying:
		return "Retrying"
	case StateExhausted:
		return "Exhausted"
	case StateFallingBack:
		return "FallingBack"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends a run: Succeeded for a generated
// parser, Done for an installed fallback.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateDone
}

// FailureKind classifies why an attempt consumed its budget slot. Rate
// limits never appear here: they are absorbed by backoff inside the same
// attempt and surface only as a wait count.
type FailureKind int

const (
	// FailureNone marks the successful terminal attempt.
	FailureNone FailureKind = iota

	// FailureOracle is a non-rate-limit generation failure. The attempt
	// carries no candidate.
	FailureOracle

	// FailureExecution means the candidate did not run to a decodable table.
	FailureExecution

	// FailureValidation means the candidate ran but its output diverged
	// from the reference.
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureOracle:
		return "oracle_error"
	case FailureExecution:
		return "execution_failed"
	case FailureValidation:
		return "validation_failed"
	default:
		return "unknown"
	}
}
