package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header string from report summary data.
func renderHeader(report *models.Report, sparkline []int, width int) string {
	var b strings.Builder

	// Line 1: title and score
	scoreText := readinessStyle(report.ReadinessLevel).Render(
		fmt.Sprintf("%.1f/100 (%s)", report.ValidationScore, strings.ToUpper(report.ReadinessLevel)),
	)
	b.WriteString(fmt.Sprintf("CodeSpectre  Score: %s", scoreText))

	if report.Trend != nil {
		indicator := trendIndicator(report.Trend.Direction)
		b.WriteString(fmt.Sprintf("  %s %.1f%%", indicator, report.Trend.ChangePercent))
	}
	if report.Partial {
		b.WriteString("  (partial)")
	}
	b.WriteString("\n")

	// Line 2: files and total issues
	b.WriteString(fmt.Sprintf("Files: %d  Issues: %d  Root: %s",
		report.TotalFilesScanned, len(report.Issues), report.RootPath))
	b.WriteString("\n")

	// Line 3: severity breakdown
	sevParts := make([]string, 0, len(models.Severities))
	for _, sev := range models.Severities {
		if count := report.Count(sev); count > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(string(sev)[:1]), count)
			sevParts = append(sevParts, severityStyle(sev).Render(label))
		}
	}
	if len(sevParts) > 0 {
		b.WriteString(strings.Join(sevParts, "  "))
	}
	b.WriteString("\n")

	// Line 4: issue count history
	if len(sparkline) > 0 {
		b.WriteString("Trend: ")
		b.WriteString(Sparkline(sparkline))
	}

	return styleHeader.Width(width).Render(b.String())
}

func trendIndicator(direction string) string {
	switch direction {
	case "improving":
		return "↓"
	case "degrading":
		return "↑"
	default:
		return "→"
	}
}

// Sparkline renders values as unicode bars followed by the first and last
// value.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	bars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range values {
		if hi == lo {
			b.WriteRune(bars[len(bars)/2])
			continue
		}
		idx := (v - lo) * (len(bars) - 1) / (hi - lo)
		b.WriteRune(bars[idx])
	}

	b.WriteString(fmt.Sprintf(" [%d→%d]", values[0], values[len(values)-1]))
	return b.String()
}
