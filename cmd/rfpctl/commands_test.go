package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	sub := "2025-06-30"
	conf := 72.0
	var buf bytes.Buffer
	printSummary(&buf, analysis.Combined{
		Result: analysis.Result{
			Disciplines:    []string{"Civil", "Structural"},
			Dates:          analysis.Dates{Submission: &sub},
			Recommendation: analysis.RecommendationGo,
			Confidence:     &conf,
			Rationale:      "Core disciplines match.",
		},
		RiskLabels:   []string{"Liquidated damages"},
		FileMetadata: documents.FileMetadata{ID: "abc"},
		Extraction:   analysis.Extraction{Truncated: true, Characters: 100},
	})

	out := buf.String()
	assert.Contains(t, out, "Recommendation: GO (confidence 72%)")
	assert.Contains(t, out, "Disciplines: Civil, Structural")
	assert.Contains(t, out, "submission=2025-06-30 completion=- siteVisit=-")
	assert.Contains(t, out, "  - Liquidated damages")
	assert.Contains(t, out, "truncated to 100 characters")
}

func TestDetectMediaType(t *testing.T) {
	assert.Equal(t, documents.MediaTypeDOCX, detectMediaType("rfp.docx", []byte("PK\x03\x04")))
	assert.Equal(t, "text/plain", detectMediaType("notes", []byte("plain words")))
	assert.Equal(t, documents.MediaTypePDF, detectMediaType("scan", []byte("%PDF-1.7\n")))
}

func TestAnalyzeCommandWithHeuristicProvider(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })
	for _, k := range []string{"STORAGE_BACKEND", "AI_PROVIDER", "STORAGE_DIR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: filesystem\n  filesystem:\n    dir: "+filepath.Join(dir, "data")+"\nai:\n  provider: heuristic\n"), 0o644))
	doc := filepath.Join(dir, "rfp.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Geotechnical investigation. Proposals due 2025-04-30."), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"analyze", "--config", cfgPath, doc})
	require.NoError(t, cmd.Execute(), out.String())

	assert.Contains(t, out.String(), "Recommendation: GO")
	assert.Contains(t, out.String(), "Geotechnical")
}
