package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// MarkdownReporter writes the pipeline summary.
type MarkdownReporter struct {
	writer io.Writer
}

// NewMarkdownReporter creates a new Markdown reporter
func NewMarkdownReporter(writer io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: writer}
}

// Generate writes the summary of a pipeline run.
func (r *MarkdownReporter) Generate(result *models.PipelineResult) error {
	var b strings.Builder
	report := result.Report

	fmt.Fprintf(&b, "# CodeSpectre Pipeline Summary\n\n")
	fmt.Fprintf(&b, "**Status:** %s (exit code %d)\n\n", result.Status(), result.ExitCode)
	if result.Error != "" {
		fmt.Fprintf(&b, "**Error:** %s\n\n", result.Error)
	}

	if report != nil {
		fmt.Fprintf(&b, "## Scan\n\n")
		fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Timestamp | %s |\n", formatTimestamp(report.ScanTimestamp))
		fmt.Fprintf(&b, "| Files scanned | %d |\n", report.TotalFilesScanned)
		fmt.Fprintf(&b, "| Total issues | %d |\n", len(report.Issues))
		fmt.Fprintf(&b, "| Validation score | %.1f (%s) |\n", report.ValidationScore, report.ReadinessLevel)
		fmt.Fprintf(&b, "| Duration | %.2fs |\n", report.ScanDurationSeconds)
		if report.Partial {
			fmt.Fprintf(&b, "| Partial | yes |\n")
		}
		fmt.Fprintf(&b, "\n## Issues by Severity\n\n| Severity | Count |\n|---|---|\n")
		for _, sev := range models.Severities {
			fmt.Fprintf(&b, "| %s | %d |\n", sev, report.Count(sev))
		}
		if len(report.IssuesByType) > 0 {
			fmt.Fprintf(&b, "\n## Issues by Type\n\n| Type | Count |\n|---|---|\n")
			for _, t := range sortedTypes(report.IssuesByType) {
				fmt.Fprintf(&b, "| %s | %d |\n", t, report.IssuesByType[t])
			}
		}
	}

	fmt.Fprintf(&b, "\n## Gates\n\n")
	if len(result.Violations) == 0 {
		fmt.Fprintf(&b, "All gates passed.\n")
	}
	for _, v := range result.Violations {
		marker := ""
		if v.Gate == result.FailedGate {
			marker = " (decisive)"
		}
		fmt.Fprintf(&b, "- **%s**%s: %s\n", v.Gate, marker, v.Message)
	}

	fmt.Fprintf(&b, "\n## Performance\n\n")
	if cmp := result.BaselineComparison; cmp != nil {
		fmt.Fprintf(&b, "| | Baseline | Current |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| Duration | %.2fs | %.2fs |\n", cmp.BaselineDuration, cmp.CurrentDuration)
		fmt.Fprintf(&b, "| Score | %.1f | %.1f |\n", cmp.BaselineScore, cmp.CurrentScore)
		fmt.Fprintf(&b, "| Files | %d | %d |\n\n", cmp.BaselineFiles, cmp.CurrentFiles)
		fmt.Fprintf(&b, "Performance regression: **%t**\n", result.PerformanceRegression)
	} else {
		fmt.Fprintf(&b, "No baseline available.\n")
	}
	if result.BaselineUpdated {
		fmt.Fprintf(&b, "\nBaseline updated with this run.\n")
	}

	if len(result.Notifications) > 0 {
		fmt.Fprintf(&b, "\n## Notifications\n\n")
		for _, n := range result.Notifications {
			state := "delivered"
			if !n.Delivered {
				state = "failed (" + n.Error + ")"
			}
			fmt.Fprintf(&b, "- %s %s: %s\n", n.Kind, n.Endpoint, state)
		}
	}

	_, err := io.WriteString(r.writer, b.String())
	return err
}
