// Package sandbox executes candidate parser source in an in-process
// interpreter with an import whitelist, a panic barrier, and timeout
// enforcement. This file contains the yaegi-based executor.
//
// Interpretation avoids the failure modes of compiling candidates with the
// go toolchain: no build hangs, no binary version skew, no dependency
// resolution. The price is a restricted surface, which is exactly what
// untrusted generated code should get.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
	"github.com/Nivasini17/ai-agent-challenge/internal/statement"
)

// EntryFunc is the function every candidate must define:
// func ParseStatement(input string) (string, error), returning CSV text
// with the header row first.
const EntryFunc = "ParseStatement"

// DefaultTimeout bounds a single candidate execution.
const DefaultTimeout = 10 * time.Second

// Outcome is the result of running one candidate over one input document.
// Error is empty exactly when Success is true.
type Outcome struct {
	Success  bool
	Source   string           // sanitized candidate source that was run
	Output   *statement.Table // decoded candidate output, nil unless Success
	Raw      string           // raw CSV text the candidate returned
	Error    string
	Duration time.Duration
}

// Executor runs candidates in a fresh yaegi interpreter per call.
// No state crosses runs, so a candidate's behavior is a function of its
// source and input alone.
type Executor struct {
	// Whitelist of allowed stdlib packages
	allowedImports map[string]bool
	timeout        time.Duration
}

// NewExecutor creates an executor with the default timeout.
func NewExecutor() *Executor {
	return NewExecutorWithTimeout(DefaultTimeout)
}

// NewExecutorWithTimeout creates an executor with a custom per-run timeout.
func NewExecutorWithTimeout(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		allowedImports: map[string]bool{
			"strings":       true,
			"strconv":       true,
			"fmt":           true,
			"errors":        true,
			"regexp":        true,
			"time":          true,
			"unicode":       true,
			"unicode/utf8":  true,
			"sort":          true,
			"bytes":         true,
			"bufio":         true,
			"math":          true,
			"encoding/csv":  true,
			"encoding/json": true,

			// EXPLICITLY BLOCKED (unsafe packages):
			// "os" - filesystem access
			// "os/exec" - command execution
			// "net", "net/http" - network access
			// "syscall", "unsafe" - system calls / memory games
			// "plugin" - dynamic loading
		},
		timeout: timeout,
	}
}

// Run sanitizes, prechecks, interprets, and invokes one candidate.
// Every failure mode comes back as a non-Success Outcome whose Error text is
// written for the refinement prompt; Run itself never returns an error.
func (e *Executor) Run(ctx context.Context, source, input string) Outcome {
	start := time.Now()
	logging.SandboxDebug("Run: source_len=%d input_len=%d", len(source), len(input))

	code := Sanitize(source)

	check := CheckSource(code, e.allowedImports)
	if !check.Valid {
		if check.ParseError != nil {
			return e.failure(start, code, "syntax error: %v", check.ParseError)
		}
		return e.failure(start, code, "%s", strings.Join(check.Problems, "; "))
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return e.failure(start, code, "failed to load stdlib: %v", err)
	}

	if _, err := i.Eval(code); err != nil {
		return e.failure(start, code, "code evaluation failed: %v", err)
	}

	entry, err := i.Eval("main." + EntryFunc)
	if err != nil {
		return e.failure(start, code, "%s function not found: %v", EntryFunc, err)
	}

	parseFunc, ok := entry.Interface().(func(string) (string, error))
	if !ok {
		return e.failure(start, code, "%s has incorrect signature (expected: func(string) (string, error))", EntryFunc)
	}

	resultChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("panic in candidate: %v", r)
			}
		}()
		out, err := parseFunc(input)
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- out
	}()

	select {
	case raw := <-resultChan:
		table, err := statement.FromCSV(raw)
		if err != nil {
			return e.failure(start, code, "candidate output is not valid CSV: %v", err)
		}
		logging.Sandbox("Run: candidate succeeded in %v (rows=%d, cols=%d)",
			time.Since(start), table.NumRows(), len(table.Columns))
		return Outcome{
			Success:  true,
			Source:   code,
			Output:   &table,
			Raw:      raw,
			Duration: time.Since(start),
		}
	case err := <-errChan:
		return e.failure(start, code, "candidate returned error: %v", err)
	case <-ctx.Done():
		return e.failure(start, code, "execution timed out: %v", ctx.Err())
	}
}

// AllowedImports returns the whitelist, sorted, for prompts and errors.
func (e *Executor) AllowedImports() []string {
	return sortedKeys(e.allowedImports)
}

func (e *Executor) failure(start time.Time, code, format string, args ...interface{}) Outcome {
	msg := fmt.Sprintf(format, args...)
	logging.SandboxError("Run: %s", msg)
	return Outcome{
		Source:   code,
		Error:    msg,
		Duration: time.Since(start),
	}
}
