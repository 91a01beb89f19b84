// Package agent implements the generate-execute-validate refinement loop
// that turns oracle completions into an installed statement parser.
// This file contains the rate-limit backoff policy. The loop owns all
// waiting: oracle clients classify 429s and return immediately.
package agent

import (
	"context"
	"time"
)

// Backoff defaults, matching the reference deployment's retry posture.
const (
	DefaultRateLimitRetries  = 3
	DefaultInitialBackoff    = 5 * time.Second
	DefaultMaxBackoff        = 60 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// backoffPolicy computes rate-limit wait durations. A server retry-after
// hint wins over the exponential schedule; both are capped at max.
type backoffPolicy struct {
	retries    int
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoffPolicy(retries int, initial, max time.Duration, multiplier float64) backoffPolicy {
	if retries <= 0 {
		retries = DefaultRateLimitRetries
	}
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}
	if max <= 0 {
		max = DefaultMaxBackoff
	}
	if multiplier < 1 {
		multiplier = DefaultBackoffMultiplier
	}
	return backoffPolicy{
		retries:    retries,
		initial:    initial,
		max:        max,
		multiplier: multiplier,
	}
}

// delay returns the wait before rate-limit retry n (1-based).
func (p backoffPolicy) delay(retry int, hint time.Duration) time.Duration {
	d := hint
	if d <= 0 {
		d = p.initial
		for i := 1; i < retry; i++ {
			d = time.Duration(float64(d) * p.multiplier)
			if d > p.max {
				break
			}
		}
	}
	if d > p.max {
		d = p.max
	}
	return d
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
