// Package fallback provides pre-validated parser sources for targets the
// refinement loop could not crack. Registrations are static: every source
// in the registry is expected to pass the same validation gate as a
// generated candidate before it ships.
package fallback

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

// Provenance values recorded on transformations and artifacts.
const (
	ProvenanceGenerated = "generated"
	ProvenanceFallback  = "fallback"
)

// Transformation is one installable parser: its source text, the target it
// parses, and where it came from. Exactly one transformation per run
// reaches the artifact writer.
type Transformation struct {
	Target     string
	Source     string
	Provenance string
}

// ErrUnknownTarget is returned when no fallback parser is registered for a
// target. Callers treat it as fatal: with generation exhausted and no
// fallback, there is nothing left to install.
var ErrUnknownTarget = errors.New("no fallback parser registered")

// Registry maps target keys to parser sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]string
}

// NewRegistry creates a registry with the built-in registrations.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]string)}
	r.Register("icici", iciciParserSource)
	return r
}

// Register adds or replaces the fallback source for a target.
func (r *Registry) Register(target, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[target] = source
}

// Has reports whether a fallback is registered for a target.
func (r *Registry) Has(target string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sources[target]
	return ok
}

// Get returns the fallback transformation for a target.
func (r *Registry) Get(target string) (Transformation, error) {
	r.mu.RLock()
	source, ok := r.sources[target]
	r.mu.RUnlock()

	if !ok {
		logging.FallbackError("Get: %s: %q", ErrUnknownTarget, target)
		return Transformation{}, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}

	logging.Fallback("Get: resolved %q (source_len=%d)", target, len(source))
	return Transformation{
		Target:     target,
		Source:     source,
		Provenance: ProvenanceFallback,
	}, nil
}

// Targets lists registered targets, sorted.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]string, 0, len(r.sources))
	for t := range r.sources {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
