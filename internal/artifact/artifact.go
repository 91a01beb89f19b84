// Package artifact persists winning parser transformations so they can be
// executed standalone after a refinement run finishes.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nivasini17/ai-agent-challenge/internal/fallback"
	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

// DefaultDir is where parser artifacts are installed. The dot prefix keeps
// the go tool from compiling interpreted sources into the module.
const DefaultDir = ".agent/parsers"

// Writer installs parser sources under a target-keyed layout.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir; empty means DefaultDir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir}
}

// Dir returns the artifact root.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns where a target's parser artifact lives.
func (w *Writer) Path(target string) string {
	return filepath.Join(w.dir, target+"_parser.go")
}

// Write installs a transformation as <dir>/<target>_parser.go with a
// header recording provenance. Returns the written path.
func (w *Writer) Write(tr fallback.Transformation) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("// Code generated by statement-agent. DO NOT EDIT.\n")
	fmt.Fprintf(&b, "// target: %s\n", tr.Target)
	fmt.Fprintf(&b, "// provenance: %s\n", tr.Provenance)
	fmt.Fprintf(&b, "// written: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString(strings.TrimLeft(tr.Source, "\n"))
	if !strings.HasSuffix(tr.Source, "\n") {
		b.WriteByte('\n')
	}

	path := w.Path(tr.Target)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	logging.Artifact("Write: installed %s parser at %s (provenance=%s, %d bytes)",
		tr.Target, path, tr.Provenance, b.Len())
	return path, nil
}

// Load reads an installed artifact back for standalone execution.
func (w *Writer) Load(target string) (string, error) {
	path := w.Path(target)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no parser installed for %q (expected %s)", target, path)
		}
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	return string(data), nil
}

// List returns targets with installed artifacts, in name order.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	var targets []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "_parser.go") {
			continue
		}
		targets = append(targets, strings.TrimSuffix(name, "_parser.go"))
	}
	return targets, nil
}
