package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/scenario"
)

const (
	reportFile  = "report.json"
	summaryFile = "summary.md"
)

// Writer writes run artifacts into a per-run directory.
type Writer struct {
	cfg config.ArtifactConfig
}

// NewWriter creates a new artifact writer
func NewWriter(cfg config.ArtifactConfig) *Writer {
	return &Writer{cfg: cfg}
}

// Dir returns the directory artifacts for summary are written to.
func (w *Writer) Dir(summary *scenario.Summary) string {
	return filepath.Join(w.cfg.OutputDir, summary.RunID)
}

// WriteAll writes all configured artifact formats and returns the directory
// they were written to. It does nothing when artifacts are disabled.
func (w *Writer) WriteAll(summary *scenario.Summary) (string, error) {
	if !w.cfg.Enabled {
		return "", nil
	}

	dir := w.Dir(summary)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.cfg.JSON {
		if err := w.WriteJSON(dir, summary); err != nil {
			return dir, err
		}
	}

	if w.cfg.Markdown {
		if err := w.WriteMarkdown(dir, summary); err != nil {
			return dir, err
		}
	}

	return dir, nil
}

// WriteJSON writes the full run summary as JSON
func (w *Writer) WriteJSON(dir string, summary *scenario.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, reportFile), data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write report JSON: %w", writeErr)
	}
	return nil
}

// WriteMarkdown writes a human-readable summary
func (w *Writer) WriteMarkdown(dir string, summary *scenario.Summary) error {
	if writeErr := os.WriteFile(filepath.Join(dir, summaryFile), []byte(Markdown(summary)), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}
	return nil
}

// Markdown renders summary as a markdown document.
func Markdown(summary *scenario.Summary) string {
	var md strings.Builder

	md.WriteString("# Site Check Summary\n\n")
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", summary.BaseURL))
	md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if summary.Passed() {
		md.WriteString("✅ **Passed**\n\n")
	} else {
		md.WriteString(fmt.Sprintf("❌ **Failed** (%d of %d scenarios)\n\n",
			summary.Count(scenario.StatusFailed), len(summary.Outcomes)))
	}

	md.WriteString("## Scenarios\n\n")
	md.WriteString("| Scenario | Status | Duration | Kind |\n")
	md.WriteString("|---|---|---|---|\n")
	for _, o := range summary.Outcomes {
		kind := o.Kind
		if kind == "" {
			kind = "-"
		}
		md.WriteString(fmt.Sprintf("| %s | %s %s | %s | %s |\n",
			o.Name, statusIcon(o.Status), o.Status, o.Duration.Round(time.Millisecond), kind))
	}
	md.WriteString("\n")

	var failed []scenario.Outcome
	for _, o := range summary.Outcomes {
		if o.Status != scenario.StatusPassed && o.Error != "" {
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		md.WriteString("## Failures\n\n")
		for _, o := range failed {
			md.WriteString(fmt.Sprintf("### %s\n\n```\n%s\n```\n\n", o.Name, o.Error))
		}
	}

	return md.String()
}

func statusIcon(s scenario.Status) string {
	switch s {
	case scenario.StatusPassed:
		return "✅"
	case scenario.StatusSkipped:
		return "⏭"
	default:
		return "❌"
	}
}
