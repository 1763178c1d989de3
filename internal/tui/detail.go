package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 5

// renderDetail produces the detail view for a selected issue.
func renderDetail(issue *models.Issue, width int) string {
	if issue == nil {
		return styleDetailPanel.Width(width).Render("No issue selected")
	}

	var b strings.Builder

	sevStyled := severityStyle(issue.Severity).Render(strings.ToUpper(string(issue.Severity)))
	location := styleFileGroup.Render(fmt.Sprintf("%s:%d", issue.FilePath, issue.LineNumber))
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", sevStyled, issue.IssueType, location))
	b.WriteString(issue.Description + "\n")

	if issue.PatternMatched != "" {
		b.WriteString(fmt.Sprintf("Pattern: %s\n", issue.PatternMatched))
	}
	if issue.SuggestedFix != "" {
		b.WriteString(styleFix.Render("Fix: " + issue.SuggestedFix))
	}

	return styleDetailPanel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}
