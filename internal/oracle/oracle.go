// Package oracle provides LLM client implementations for parser generation.
// This file contains the provider-neutral client interface and error types.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// Client is the interface all LLM provider clients implement.
// Generate sends a single system+user prompt pair and returns the raw
// completion text. Clients never retry rate limits themselves; they classify
// the response and return *RateLimitError so the caller owns backoff policy.
type Client interface {
	// Generate sends the prompt pair and returns the model's raw text output.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Model returns the identifier of the model this client targets.
	Model() string
}

// ModelLister is implemented by clients that can enumerate the models
// available to the configured API key.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo describes one model exposed by a provider.
type ModelInfo struct {
	ID            string
	OwnedBy       string
	Active        bool
	ContextWindow int
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// RateLimitError indicates the LLM provider returned a rate limit response.
// Callers can use errors.As to detect this error type and implement backoff.
// RetryAfter is zero when the provider did not say how long to wait.
type RateLimitError struct {
	Provider    string
	RetryAfter  time.Duration
	RawResponse string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %v", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Provider)
}

// IsRateLimit reports whether err represents a provider rate limit, either as
// a typed *RateLimitError or as a message that smells like one.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	return isRateLimitMessage(err.Error())
}

// AsRateLimit extracts the typed rate limit error when present.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// isRateLimitMessage checks whether an error string indicates rate limiting.
func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "429")
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
