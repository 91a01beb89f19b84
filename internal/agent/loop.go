// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file contains the loop itself: attempt budgeting, rate-limit
// absorption, refinement feedback, and the fallback handoff.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nivasini17/ai-agent-challenge/internal/config"
	"github.com/Nivasini17/ai-agent-challenge/internal/fallback"
	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
	"github.com/Nivasini17/ai-agent-challenge/internal/oracle"
	"github.com/Nivasini17/ai-agent-challenge/internal/sandbox"
	"github.com/Nivasini17/ai-agent-challenge/internal/validate"
)

// DefaultMaxAttempts is the attempt budget when none is configured.
const DefaultMaxAttempts = 3

// Config holds the loop policy knobs. Zero values fall back to defaults.
type Config struct {
	MaxAttempts              int
	RateLimitRetries         int
	InitialBackoff           time.Duration
	MaxBackoff               time.Duration
	BackoffMultiplier        float64
	MaxFeedbackDiscrepancies int // 0 forwards the full discrepancy list
	ExecTimeout              time.Duration
}

// Stats tracks loop activity across sessions.
type Stats struct {
	Sessions       int
	Generated      int // sessions resolved by a generated parser
	FellBack       int // sessions resolved by a fallback parser
	AttemptsTotal  int
	RateLimitWaits int
}

// Loop drives generate-execute-validate refinement for one target at a
// time. Each Run is single-threaded: the only suspension points are the
// oracle call and the backoff wait, both cancellable through ctx. A Loop
// may be reused across sessions.
type Loop struct {
	client    oracle.Client
	executor  *sandbox.Executor
	fallbacks *fallback.Registry
	backoff   backoffPolicy
	traces    *TraceCollector

	maxAttempts int
	maxFeedback int

	mu    sync.RWMutex
	stats Stats
}

// New creates a refinement loop. A nil registry gets the built-in
// registrations.
func New(client oracle.Client, fallbacks *fallback.Registry, cfg Config) *Loop {
	if fallbacks == nil {
		fallbacks = fallback.NewRegistry()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{
		client:      client,
		executor:    sandbox.NewExecutorWithTimeout(cfg.ExecTimeout),
		fallbacks:   fallbacks,
		backoff:     newBackoffPolicy(cfg.RateLimitRetries, cfg.InitialBackoff, cfg.MaxBackoff, cfg.BackoffMultiplier),
		maxAttempts: maxAttempts,
		maxFeedback: cfg.MaxFeedbackDiscrepancies,
	}
}

// FromConfig builds a loop from file configuration.
func FromConfig(cfg *config.Config, client oracle.Client, fallbacks *fallback.Registry) *Loop {
	l := New(client, fallbacks, Config{
		MaxAttempts:              cfg.Loop.MaxAttempts,
		RateLimitRetries:         cfg.Loop.RateLimitRetries,
		InitialBackoff:           cfg.GetInitialBackoff(),
		MaxBackoff:               cfg.GetMaxBackoff(),
		BackoffMultiplier:        cfg.Loop.BackoffMultiplier,
		MaxFeedbackDiscrepancies: cfg.Loop.MaxFeedbackDiscrepancies,
		ExecTimeout:              cfg.GetExecTimeout(),
	})
	if cfg.Data.SaveTraces {
		l.SetTraces(NewTraceCollector(cfg.Data.TraceDir))
	}
	return l
}

// SetTraces enables attempt trace export.
func (l *Loop) SetTraces(tc *TraceCollector) {
	l.traces = tc
}

// GetStats returns a snapshot of loop activity.
func (l *Loop) GetStats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// Run drives one session to resolution. The session's attempt log is
// append-only; a cancelled oracle call or backoff wait aborts the run
// without recording the in-flight attempt. The only error returns are
// context cancellation and unknown targets.
func (l *Loop) Run(ctx context.Context, session *Session) (*RunResult, error) {
	start := time.Now()
	timer := logging.StartTimer(logging.CategoryAgent, fmt.Sprintf("run %s", session.Target))
	defer timer.Stop()

	// Unknown targets are fatal before any oracle spend: exhaustion must
	// always have a fallback to land on.
	if !l.fallbacks.Has(session.Target) {
		logging.AgentError("Run: unknown target %q", session.Target)
		return nil, fmt.Errorf("%w: %q", fallback.ErrUnknownTarget, session.Target)
	}

	maxAttempts := session.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = l.maxAttempts
	}

	logging.Agent("Run: session=%s target=%s max_attempts=%d model=%s",
		session.ID, session.Target, maxAttempts, l.client.Model())

	sysPrompt := systemPrompt(l.executor.AllowedImports())
	if l.traces != nil {
		l.traces.Begin(session, l.client.Model(), sysPrompt)
	}

	result := &RunResult{
		SessionID: session.ID,
		Target:    session.Target,
		State:     StateIdle,
	}

	for seq := 1; seq <= maxAttempts; seq++ {
		attemptStart := time.Now()
		result.State = StateGenerating

		userPrompt := l.userPrompt(session)
		raw, waits, err := l.generate(ctx, sysPrompt, userPrompt)
		if err != nil {
			if ctx.Err() != nil {
				return l.abort(session, ctx.Err())
			}
			logging.AgentWarn("Run: attempt %d/%d oracle error: %v", seq, maxAttempts, err)
			l.recordAttempt(session, Attempt{
				Seq:            seq,
				Failure:        FailureOracle,
				Error:          err.Error(),
				RateLimitWaits: waits,
				Duration:       time.Since(attemptStart),
			}, userPrompt, raw)
			result.State = StateRetrying
			continue
		}

		result.State = StateExecuting
		outcome := l.executor.Run(ctx, raw, session.SampleText)
		source := outcome.Source
		if ctx.Err() != nil {
			return l.abort(session, ctx.Err())
		}
		if !outcome.Success {
			logging.AgentWarn("Run: attempt %d/%d execution failed: %s", seq, maxAttempts, outcome.Error)
			l.recordAttempt(session, Attempt{
				Seq:            seq,
				Failure:        FailureExecution,
				Source:         source,
				Error:          outcome.Error,
				RateLimitWaits: waits,
				Duration:       time.Since(attemptStart),
			}, userPrompt, raw)
			result.State = StateRetrying
			continue
		}

		result.State = StateValidating
		report := validate.Compare(*outcome.Output, session.Reference)
		if !report.Pass {
			logging.AgentWarn("Run: attempt %d/%d validation failed with %d discrepancies",
				seq, maxAttempts, len(report.Discrepancies))
			l.recordAttempt(session, Attempt{
				Seq:            seq,
				Failure:        FailureValidation,
				Source:         source,
				Report:         &report,
				RateLimitWaits: waits,
				Duration:       time.Since(attemptStart),
			}, userPrompt, raw)
			result.State = StateRetrying
			continue
		}

		// The candidate reproduces the reference.
		l.recordAttempt(session, Attempt{
			Seq:            seq,
			Failure:        FailureNone,
			Source:         source,
			Report:         &report,
			RateLimitWaits: waits,
			Duration:       time.Since(attemptStart),
		}, userPrompt, raw)

		result.State = StateSucceeded
		result.Provenance = fallback.ProvenanceGenerated
		result.Source = source
		result.Attempts = session.Attempts
		result.Duration = time.Since(start)

		logging.Agent("Run: session=%s succeeded at attempt %d/%d", session.ID, seq, maxAttempts)
		l.finish(result)
		return result, nil
	}

	// Budget exhausted. The pre-validated fallback resolves the run; the
	// resolution lands on the result, not in the attempt log.
	result.State = StateExhausted
	logging.Agent("Run: session=%s exhausted %d attempts, falling back", session.ID, maxAttempts)

	result.State = StateFallingBack
	tr, err := l.fallbacks.Get(session.Target)
	if err != nil {
		return l.abort(session, err)
	}

	result.State = StateDone
	result.Provenance = tr.Provenance
	result.Source = tr.Source
	result.Attempts = session.Attempts
	result.Duration = time.Since(start)

	logging.Agent("Run: session=%s resolved by fallback", session.ID)
	l.finish(result)
	return result, nil
}

// generate calls the oracle, absorbing rate limits with backoff waits.
// Waits retry the same attempt; the per-attempt retry budget degrades to a
// plain oracle error once spent. Returns the raw completion and how many
// waits were absorbed.
func (l *Loop) generate(ctx context.Context, sysPrompt, userPrompt string) (string, int, error) {
	waits := 0
	for {
		raw, err := l.client.Generate(ctx, sysPrompt, userPrompt)
		if err == nil {
			return raw, waits, nil
		}
		if !oracle.IsRateLimit(err) {
			return "", waits, err
		}
		if waits >= l.backoff.retries {
			return "", waits, fmt.Errorf("rate limit retries exhausted after %d waits: %w", waits, err)
		}
		waits++

		var hint time.Duration
		if rle, ok := oracle.AsRateLimit(err); ok {
			hint = rle.RetryAfter
		}
		delay := l.backoff.delay(waits, hint)
		logging.AgentWarn("generate: rate limited, wait %d/%d for %v", waits, l.backoff.retries, delay)
		if err := sleep(ctx, delay); err != nil {
			return "", waits, err
		}
	}
}

// recordAttempt appends to the session log and mirrors the attempt into
// stats and traces.
func (l *Loop) recordAttempt(session *Session, a Attempt, userPrompt, raw string) {
	session.record(a)

	l.mu.Lock()
	l.stats.AttemptsTotal++
	l.stats.RateLimitWaits += a.RateLimitWaits
	l.mu.Unlock()

	if l.traces != nil {
		l.traces.RecordAttempt(session.ID, a, userPrompt, raw)
	}
}

// abort discards the in-flight trace and surfaces the terminal error. The
// interrupted attempt is never recorded.
func (l *Loop) abort(session *Session, err error) (*RunResult, error) {
	if l.traces != nil {
		l.traces.Drop(session.ID)
	}
	logging.AgentWarn("Run: session=%s aborted: %v", session.ID, err)
	return nil, fmt.Errorf("run aborted: %w", err)
}

// finish updates stats and exports the session trace.
func (l *Loop) finish(result *RunResult) {
	l.mu.Lock()
	l.stats.Sessions++
	if result.Provenance == fallback.ProvenanceGenerated {
		l.stats.Generated++
	} else {
		l.stats.FellBack++
	}
	l.mu.Unlock()

	if l.traces != nil {
		path, err := l.traces.Finish(result)
		if err != nil {
			logging.AgentWarn("Run: trace export failed: %v", err)
		} else if path != "" {
			logging.AgentDebug("Run: trace exported to %s", path)
		}
	}
}
