package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/codespectre/internal/models"
)

var severityColors = map[models.Severity]lipgloss.Color{
	models.SeverityCritical: lipgloss.Color("196"),
	models.SeverityHigh:     lipgloss.Color("208"),
	models.SeverityMedium:   lipgloss.Color("220"),
	models.SeverityLow:      lipgloss.Color("39"),
}

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
	color  bool
	limit  int
}

// NewTextReporter creates a new text reporter. color enables ANSI styling.
func NewTextReporter(writer io.Writer, color bool) *TextReporter {
	return &TextReporter{
		writer: writer,
		color:  color,
		limit:  20,
	}
}

// WithIssueLimit caps the number of issues listed. Zero lists none.
func (r *TextReporter) WithIssueLimit(n int) *TextReporter {
	r.limit = n
	return r
}

// Generate prints the scan summary and the top issues.
func (r *TextReporter) Generate(report *models.Report) error {
	r.printHeader()
	r.printf("Scanned: %s\n", report.RootPath)
	r.printf("Timestamp: %s\n\n", formatTimestamp(report.ScanTimestamp))

	r.printSummary(report)

	if r.limit > 0 && len(report.Issues) > 0 {
		r.printIssues(report.Issues)
	}
	if len(report.Recommendations) > 0 {
		r.printRecommendations(report.Recommendations)
	}
	if report.Trend != nil {
		r.printf("\n")
		r.printTrendInfo(report.Trend)
	}
	return nil
}

// GeneratePipelineResult prints the gate decision after the scan summary.
func (r *TextReporter) GeneratePipelineResult(result *models.PipelineResult) error {
	if result.Report != nil {
		if err := r.Generate(result.Report); err != nil {
			return err
		}
		r.printf("\n")
	}

	r.printf("Pipeline Result:\n")
	r.printf("--------------------------------------------------\n")
	status := result.Status()
	switch status {
	case "PASS":
		status = r.style(passStyle, status)
	case "FAIL":
		status = r.style(failStyle, status)
	default:
		status = r.style(errorStyle, status)
	}
	r.printf("  Status: %s (exit code %d)\n", status, result.ExitCode)
	if result.Error != "" {
		r.printf("  Error: %s\n", result.Error)
	}
	if result.FailedGate != "" {
		r.printf("  Failed gate: %s\n", result.FailedGate)
	}
	for _, v := range result.Violations {
		r.printf("  - %s: %s\n", v.Gate, v.Message)
	}
	if cmp := result.BaselineComparison; cmp != nil {
		r.printf("  Baseline: %.2fs -> %.2fs (x%.2f), score %.1f -> %.1f\n",
			cmp.BaselineDuration, cmp.CurrentDuration, cmp.DurationRatio, cmp.BaselineScore, cmp.CurrentScore)
	}
	if result.PerformanceRegression {
		r.printf("  Performance regression: scan is more than %.0f%% slower than baseline\n", (models.RegressionFactor-1)*100)
	}
	if result.BaselineUpdated {
		r.printf("  Baseline updated\n")
	}
	for _, a := range result.Artifacts {
		r.printf("  Artifact: %s\n", a)
	}
	for _, n := range result.Notifications {
		state := "delivered"
		if !n.Delivered {
			state = "failed: " + n.Error
		}
		r.printf("  Notification %s %s: %s\n", n.Kind, n.Endpoint, state)
	}
	return nil
}

func (r *TextReporter) printHeader() {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║         CodeSpectre Validation Report      ║\n")
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

func (r *TextReporter) printSummary(report *models.Report) {
	r.printf("%s\n", r.style(titleStyle, "Summary:"))
	r.printf("--------------------------------------------------\n")
	r.printf("  Files Scanned: %d\n", report.TotalFilesScanned)
	r.printf("  Total Issues: %d\n", len(report.Issues))
	r.printf("  Validation Score: %.1f/100 (%s)\n", report.ValidationScore, strings.ToUpper(report.ReadinessLevel))
	r.printf("  Duration: %.2fs\n", report.ScanDurationSeconds)
	if report.WhitelistApplied {
		r.printf("  Whitelist: applied\n")
	}
	if report.Partial {
		r.printf("  %s\n", r.style(failStyle, "Scan interrupted: report is partial"))
	}
	r.printf("\n")

	r.printf("Issues by Severity:\n")
	for _, sev := range models.Severities {
		r.printf("  %s %d\n", r.severityLabel(sev, 10), report.Count(sev))
	}
	r.printf("\n")

	if len(report.IssuesByType) > 0 {
		r.printf("Issues by Type:\n")
		for _, t := range sortedTypes(report.IssuesByType) {
			r.printf("  %-34s %d\n", t, report.IssuesByType[t])
		}
	}
}

func (r *TextReporter) printIssues(issues []models.Issue) {
	r.printf("\nIssues:\n")
	r.printf("--------------------------------------------------\n")
	for i, issue := range issues {
		if i == r.limit {
			r.printf("  ... and %d more\n", len(issues)-r.limit)
			break
		}
		r.printf("  %s %s:%d %s\n", r.severityLabel(issue.Severity, 10), issue.FilePath, issue.LineNumber, issue.Description)
	}
}

func (r *TextReporter) printRecommendations(recs []models.Recommendation) {
	r.printf("\nRecommended Actions:\n")
	r.printf("--------------------------------------------------\n")
	for i, rec := range recs {
		r.printf("  %d. [%s] %s (%s)\n", i+1, strings.ToUpper(string(rec.Severity)), rec.Action, rec.IssueType)
		r.printf("     Impact: %s\n", rec.Impact)
	}
}

func (r *TextReporter) printTrendInfo(trend *models.Trend) {
	r.printf("Trend Analysis:\n")
	r.printf("--------------------------------------------------\n")
	r.printf("  Direction: %s %s\n", trend.Direction, TrendIndicator(trend.Direction))
	r.printf("  Change: %d → %d issues (%.1f%%)\n", trend.PreviousIssues, trend.CurrentIssues, trend.ChangePercent)
	r.printf("  Score: %.1f → %.1f\n", trend.PreviousScore, trend.CurrentScore)
	if trend.NewIssues > 0 {
		r.printf("  New Issues: %d\n", trend.NewIssues)
	}
	if trend.ResolvedIssues > 0 {
		r.printf("  Resolved: %d\n", trend.ResolvedIssues)
	}
	r.printf("  Compared With: %s\n", formatTimestamp(trend.ComparedWith))
}

// TrendIndicator returns an arrow for a trend direction.
func TrendIndicator(direction string) string {
	switch direction {
	case "improving":
		return "↓"
	case "degrading":
		return "↑"
	}
	return "→"
}

func (r *TextReporter) severityLabel(sev models.Severity, width int) string {
	label := fmt.Sprintf("%-*s", width, strings.ToUpper(string(sev)))
	if !r.color {
		return label
	}
	return lipgloss.NewStyle().Foreground(severityColors[sev]).Bold(sev == models.SeverityCritical).Render(label)
}

func (r *TextReporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
