// Package statement models bank-statement data as it flows through the
// agent. This file contains per-target document and reference loading.
package statement

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Nivasini17/ai-agent-challenge/internal/logging"
)

// MaxSamplePages caps how many PDF pages are extracted. Statement layouts
// repeat per page, so the first pages carry everything the oracle needs.
const MaxSamplePages = 2

// Pair is a target's sample document text and reference output table.
type Pair struct {
	Target     string
	SamplePath string
	SampleText string
	Reference  Table
}

// sampleCandidates lists the file names probed for a target's sample
// document, in order of preference.
func sampleCandidates(dataDir, target string) []string {
	base := filepath.Join(dataDir, target)
	return []string{
		filepath.Join(base, "sample.pdf"),
		filepath.Join(base, "sample.txt"),
		filepath.Join(base, target+"_sample.pdf"),
		filepath.Join(base, target+"_sample.txt"),
	}
}

// referencePath returns the reference CSV location for a target.
func referencePath(dataDir, target string) string {
	return filepath.Join(dataDir, target, "result.csv")
}

// HasData reports whether a target has both a sample document and a
// reference CSV on disk.
func HasData(dataDir, target string) bool {
	if _, err := os.Stat(referencePath(dataDir, target)); err != nil {
		return false
	}
	for _, p := range sampleCandidates(dataDir, target) {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// LoadPair loads a target's sample document and reference table from the
// data directory layout data/<target>/{sample.pdf|sample.txt,result.csv}.
func LoadPair(dataDir, target string) (*Pair, error) {
	var samplePath string
	for _, p := range sampleCandidates(dataDir, target) {
		if _, err := os.Stat(p); err == nil {
			samplePath = p
			break
		}
	}
	if samplePath == "" {
		return nil, fmt.Errorf("no sample document for target %q under %s", target, filepath.Join(dataDir, target))
	}

	text, err := LoadSample(samplePath)
	if err != nil {
		return nil, err
	}

	ref, err := LoadReferenceCSV(referencePath(dataDir, target))
	if err != nil {
		return nil, err
	}

	logging.Boot("loaded target %s: sample=%s (%d chars), reference=%d rows",
		target, samplePath, len(text), ref.NumRows())

	return &Pair{
		Target:     target,
		SamplePath: samplePath,
		SampleText: text,
		Reference:  ref,
	}, nil
}

// LoadSample reads a sample document as text. PDF documents are extracted
// page-wise (first MaxSamplePages pages); anything else is read as UTF-8.
func LoadSample(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path, MaxSamplePages)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sample %s: %w", path, err)
	}
	return string(data), nil
}

// extractPDFText pulls plain text from the first maxPages pages.
func extractPDFText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf %s page %d: %w", path, i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("pdf %s produced no extractable text", path)
	}
	return out, nil
}

// LoadReferenceCSV reads a reference output table. The first row is the
// header; every data row must match the header width.
func LoadReferenceCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	t := Table{Columns: records[0]}
	for i, rec := range records[1:] {
		if len(rec) != len(t.Columns) {
			return Table{}, fmt.Errorf("csv: %s row %d has %d columns, expected %d", path, i+2, len(rec), len(t.Columns))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// TextExcerpt returns the first maxChars characters of a sample document,
// cut at a line boundary, for embedding in oracle prompts.
func TextExcerpt(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
