package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nivasini17/ai-agent-challenge/internal/fallback"
	"github.com/Nivasini17/ai-agent-challenge/internal/sandbox"
)

const testParserSource = `package main

func ParseStatement(input string) (string, error) {
	return "Date,Description,Amount\n01-08-2024,COFFEE,4.50", nil
}
`

func TestWriterWriteAndLoad(t *testing.T) {
	w := NewWriter(t.TempDir())

	path, err := w.Write(fallback.Transformation{
		Target:     "icici",
		Source:     testParserSource,
		Provenance: fallback.ProvenanceGenerated,
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != w.Path("icici") {
		t.Errorf("expected path %s, got %s", w.Path("icici"), path)
	}
	if !strings.HasSuffix(path, "icici_parser.go") {
		t.Errorf("unexpected artifact name: %s", path)
	}

	got, err := w.Load("icici")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.HasPrefix(got, "// Code generated by statement-agent. DO NOT EDIT.") {
		t.Error("artifact should carry the generated-file header")
	}
	if !strings.Contains(got, "// provenance: generated") {
		t.Error("artifact header should record provenance")
	}
	if !strings.Contains(got, "func ParseStatement") {
		t.Error("artifact should carry the parser source")
	}
}

// An installed artifact must still run under the sandbox: the provenance
// header may not break interpretation.
func TestWrittenArtifactStaysExecutable(t *testing.T) {
	w := NewWriter(t.TempDir())

	if _, err := w.Write(fallback.Transformation{
		Target:     "icici",
		Source:     testParserSource,
		Provenance: fallback.ProvenanceFallback,
	}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	source, err := w.Load("icici")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	outcome := sandbox.NewExecutor().Run(context.Background(), source, "whatever")
	if !outcome.Success {
		t.Fatalf("installed artifact failed to execute: %s", outcome.Error)
	}
	if outcome.Output.NumRows() != 1 {
		t.Errorf("expected 1 row from the artifact, got %d", outcome.Output.NumRows())
	}
}

func TestLoad_Missing(t *testing.T) {
	w := NewWriter(t.TempDir())

	_, err := w.Load("sbi")
	if err == nil {
		t.Fatal("expected an error for a missing artifact")
	}
	if !strings.Contains(err.Error(), "no parser installed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	targets, err := w.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected no artifacts yet, got %v", targets)
	}

	for _, target := range []string{"sbi", "icici"} {
		if _, err := w.Write(fallback.Transformation{
			Target:     target,
			Source:     testParserSource,
			Provenance: fallback.ProvenanceGenerated,
		}); err != nil {
			t.Fatalf("Write %s failed: %v", target, err)
		}
	}
	// A stray non-parser file must not show up.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	targets, err = w.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"icici", "sbi"}
	if len(targets) != len(want) {
		t.Fatalf("expected %v, got %v", want, targets)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("expected %v, got %v", want, targets)
		}
	}
}

func TestNewWriter_DefaultDir(t *testing.T) {
	w := NewWriter("")
	if w.Dir() != DefaultDir {
		t.Errorf("expected %s, got %s", DefaultDir, w.Dir())
	}
}
