package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/codespectre/internal/models"
)

var (
	colorRed    = lipgloss.Color("196")
	colorOrange = lipgloss.Color("208")
	colorYellow = lipgloss.Color("220")
	colorBlue   = lipgloss.Color("39")
	colorGreen  = lipgloss.Color("42")
	colorGrey   = lipgloss.Color("245")
	colorPurple = lipgloss.Color("141")
	colorFrame  = lipgloss.Color("238")
)

var severityColors = map[models.Severity]lipgloss.Color{
	models.SeverityCritical: colorRed,
	models.SeverityHigh:     colorOrange,
	models.SeverityMedium:   colorYellow,
	models.SeverityLow:      colorBlue,
}

var readinessColors = map[string]lipgloss.Color{
	"excellent": colorGreen,
	"good":      colorGreen,
	"warning":   colorYellow,
	"critical":  colorOrange,
	"severe":    colorRed,
}

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(colorFrame)

	styleFooter       = lipgloss.NewStyle().Foreground(colorGrey).Padding(0, 1)
	styleSearchPrompt = lipgloss.NewStyle().Foreground(colorPurple).Bold(true)
	styleFix          = lipgloss.NewStyle().Foreground(colorGreen)
	styleFileGroup    = lipgloss.NewStyle().Foreground(colorPurple)
)

// severityStyle bolds critical and high so they stand out in the table.
func severityStyle(severity models.Severity) lipgloss.Style {
	c, ok := severityColors[severity]
	if !ok {
		return lipgloss.NewStyle()
	}
	s := lipgloss.NewStyle().Foreground(c)
	if severity.Rank() <= models.SeverityHigh.Rank() {
		s = s.Bold(true)
	}
	return s
}

func readinessStyle(level string) lipgloss.Style {
	c, ok := readinessColors[level]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c).Bold(level != "good")
}
