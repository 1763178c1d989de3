package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/codespectre/internal/models"
)

var tableColumns = []table.Column{
	{Title: "Severity", Width: 10},
	{Title: "Type", Width: 30},
	{Title: "File", Width: 36},
	{Title: "Line", Width: 6},
}

func buildRows(issues []models.Issue) []table.Row {
	rows := make([]table.Row, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, table.Row{
			strings.ToUpper(string(issue.Severity)),
			truncate(issue.IssueType, tableColumns[1].Width),
			truncateLeft(issue.FilePath, tableColumns[2].Width),
			strconv.Itoa(issue.LineNumber),
		})
	}
	return rows
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}

// truncateLeft keeps the end of a path, which names the file.
func truncateLeft(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return s[len(s)-maxLen:]
	}
	return ellipsis + s[len(s)-maxLen+len(ellipsis):]
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorFrame).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPurple).
		Bold(false)
	t.SetStyles(s)

	return t
}
