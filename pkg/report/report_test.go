package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/scenario"
)

func sampleSummary() *scenario.Summary {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &scenario.Summary{
		RunID:     "run-123",
		BaseURL:   "https://www.opravy-telefonu.cz/",
		StartTime: start,
		EndTime:   start.Add(3 * time.Second),
		Duration:  3 * time.Second,
		Outcomes: []scenario.Outcome{
			{Name: "link-navigation", Status: scenario.StatusPassed, Duration: 1200 * time.Millisecond},
			{
				Name:     "cross-engine-title",
				Status:   scenario.StatusFailed,
				Kind:     "assertion",
				Error:    "firefox: assertion failed: title mismatch\n--- expected\n+++ actual",
				Duration: 1500 * time.Millisecond,
			},
			{Name: "analytics-cookie", Status: scenario.StatusSkipped, Error: "context canceled"},
		},
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ArtifactConfig{Enabled: true, OutputDir: dir, JSON: true, Markdown: true})

	out, err := w.WriteAll(sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-123"), out)

	data, err := os.ReadFile(filepath.Join(out, "report.json"))
	require.NoError(t, err)

	var decoded scenario.Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-123", decoded.RunID)
	require.Len(t, decoded.Outcomes, 3)
	assert.Equal(t, scenario.StatusFailed, decoded.Outcomes[1].Status)
	assert.Equal(t, "assertion", decoded.Outcomes[1].Kind)

	md, err := os.ReadFile(filepath.Join(out, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Site Check Summary")
}

func TestWriteAllRespectsFormats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ArtifactConfig{Enabled: true, OutputDir: dir, Markdown: true})

	out, err := w.WriteAll(sampleSummary())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, "report.json"))
	assert.FileExists(t, filepath.Join(out, "summary.md"))
}

func TestWriteAllDisabled(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ArtifactConfig{Enabled: false, OutputDir: dir, JSON: true})

	out, err := w.WriteAll(sampleSummary())
	require.NoError(t, err)
	assert.Empty(t, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAllBadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	w := NewWriter(config.ArtifactConfig{Enabled: true, OutputDir: file, JSON: true})
	_, err := w.WriteAll(sampleSummary())
	assert.ErrorContains(t, err, "failed to create output directory")
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleSummary())

	assert.Contains(t, md, "**Target:** https://www.opravy-telefonu.cz/")
	assert.Contains(t, md, "❌ **Failed** (1 of 3 scenarios)")
	assert.Contains(t, md, "| link-navigation | ✅ passed | 1.2s | - |")
	assert.Contains(t, md, "| cross-engine-title | ❌ failed | 1.5s | assertion |")
	assert.Contains(t, md, "### cross-engine-title")
	assert.Contains(t, md, "### analytics-cookie")
	assert.NotContains(t, md, "### link-navigation")

	passing := sampleSummary()
	passing.Outcomes = passing.Outcomes[:1]
	assert.Contains(t, Markdown(passing), "✅ **Passed**")
	assert.NotContains(t, Markdown(passing), "## Failures")
}

func TestConsoleSummary(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, false).Summary(sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "✓ link-navigation (1.2s)")
	assert.Contains(t, out, "✗ cross-engine-title [assertion] (1.5s)")
	assert.Contains(t, out, "firefox: assertion failed: title mismatch")
	assert.NotContains(t, out, "+++ actual")
	assert.Contains(t, out, "- analytics-cookie skipped")
	assert.Contains(t, out, "FAIL 1 passed, 1 failed, 1 skipped in 3s")
}

func TestConsoleVerboseShowsFullError(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	c.Header("sitecheck")
	c.Summary(sampleSummary())

	assert.Contains(t, buf.String(), "sitecheck")
	assert.Contains(t, buf.String(), "+++ actual")
}
