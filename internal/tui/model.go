package tui

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/codespectre/internal/models"
)

// mode represents the current UI interaction mode.
type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterType
)

const defaultTableHeight = 15

// Model is the top-level Bubble Tea model for the issue browser.
type Model struct {
	report    *models.Report
	sparkline []int
	// allIssues stays in discovery order
	allIssues []models.Issue

	table          table.Model
	searchInput    textinput.Model
	filteredIssues []models.Issue
	filters        filterState
	sortBy         sortField
	mode           mode
	typeChoices    []string
	typeCursor     int
	width          int
	height         int
	statusMsg      string
	clipboard      string
	// osc receives the OSC 52 clipboard sequence
	osc io.Writer
}

// New creates a browser model for a report. sparkline holds issue counts
// of earlier runs, oldest first, and may be empty.
func New(report *models.Report, sparkline []int) Model {
	issues := make([]models.Issue, len(report.Issues))
	copy(issues, report.Issues)

	ti := textinput.New()
	ti.Placeholder = "search..."
	ti.CharLimit = 64

	m := Model{
		report:      report,
		sparkline:   sparkline,
		allIssues:   issues,
		table:       newTable(nil, defaultTableHeight),
		searchInput: ti,
		sortBy:      sortBySeverity,
		mode:        modeNormal,
		typeChoices: uniqueTypes(issues),
		width:       80,
		height:      24,
		osc:         io.Discard,
	}
	m.rebuildTable()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-headerHeight-detailHeight-3, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	default:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilterType:
		return m.handleFilterTypeKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.FilterType):
		m.mode = modeFilterType
		m.typeCursor = 0
		return m, nil
	case key.Matches(msg, keys.FilterSeverity):
		m.filters.Severity = nextSeverity(m.filters.Severity)
		m.rebuildTable()
		if m.filters.Severity != "" {
			m.statusMsg = fmt.Sprintf("Severity: %s", m.filters.Severity)
		} else {
			m.statusMsg = ""
		}
		return m, nil
	case key.Matches(msg, keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortField(sortFieldCount)
		m.rebuildTable()
		m.statusMsg = fmt.Sprintf("Sort: %s", sortFieldName(m.sortBy))
		return m, nil
	case key.Matches(msg, keys.Copy):
		m.copySelectedIssue()
		return m, nil
	case key.Matches(msg, keys.NextFile):
		m.jumpFile(1)
		return m, nil
	case key.Matches(msg, keys.PrevFile):
		m.jumpFile(-1)
		return m, nil
	case key.Matches(msg, keys.ClearFilter):
		m.filters = filterState{}
		m.searchInput.SetValue("")
		m.statusMsg = ""
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filters.SearchText = m.searchInput.Value()
		m.mode = modeNormal
		m.searchInput.Blur()
		m.rebuildTable()
		return m, nil
	case "esc":
		m.mode = modeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterTypeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.typeCursor > 0 {
			m.typeCursor--
		}
	case "down", "j":
		if m.typeCursor < len(m.typeChoices) {
			m.typeCursor++
		}
	case "enter":
		if m.typeCursor == 0 {
			m.filters.IssueType = ""
		} else {
			m.filters.IssueType = m.typeChoices[m.typeCursor-1]
		}
		m.mode = modeNormal
		m.rebuildTable()
		if m.filters.IssueType != "" {
			m.statusMsg = fmt.Sprintf("Filter: %s", m.filters.IssueType)
		} else {
			m.statusMsg = ""
		}
	case "esc":
		m.mode = modeNormal
	}
	return m, nil
}

func (m *Model) rebuildTable() {
	filtered := applyFilters(m.allIssues, m.filters)
	if m.sortBy != sortByDiscovery {
		sortIssues(filtered, m.sortBy)
	}
	m.filteredIssues = filtered
	m.table.SetRows(buildRows(filtered))
	if m.table.Cursor() >= len(filtered) {
		m.table.SetCursor(max(len(filtered)-1, 0))
	}
}

func (m *Model) selectedIssue() *models.Issue {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.filteredIssues) {
		return nil
	}
	return &m.filteredIssues[cursor]
}

// jumpFile moves the cursor to the nearest row in dir whose file differs
// from the selected one. Moving back lands on the first row of that file's
// run of rows.
func (m *Model) jumpFile(dir int) {
	cur := m.table.Cursor()
	if cur < 0 || cur >= len(m.filteredIssues) {
		return
	}
	file := m.filteredIssues[cur].FilePath
	i := cur + dir
	for i >= 0 && i < len(m.filteredIssues) && m.filteredIssues[i].FilePath == file {
		i += dir
	}
	if i < 0 || i >= len(m.filteredIssues) {
		m.statusMsg = "No more files"
		return
	}
	if dir < 0 {
		target := m.filteredIssues[i].FilePath
		for i > 0 && m.filteredIssues[i-1].FilePath == target {
			i--
		}
	}
	m.table.SetCursor(i)
	m.statusMsg = m.filteredIssues[i].FilePath
}

// copySelectedIssue writes the selected issue to the clipboard via OSC 52.
func (m *Model) copySelectedIssue() {
	issue := m.selectedIssue()
	if issue == nil {
		m.statusMsg = "Nothing to copy"
		return
	}
	text := fmt.Sprintf("%s:%d [%s] %s: %s", issue.FilePath, issue.LineNumber, issue.Severity, issue.IssueType, issue.Description)
	if issue.SuggestedFix != "" {
		text += " -- " + issue.SuggestedFix
	}
	m.clipboard = text
	m.statusMsg = "Copied!"
	fmt.Fprintf(m.osc, "\033]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(renderHeader(m.report, m.sparkline, m.width))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(styleSearchPrompt.Render("/ "))
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	if m.mode == modeFilterType {
		b.WriteString(m.renderTypeFilter())
		b.WriteString("\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	b.WriteString(renderDetail(m.selectedIssue(), m.width))
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m *Model) renderTypeFilter() string {
	var b strings.Builder
	b.WriteString("Filter by issue type:\n")

	options := append([]string{"All"}, m.typeChoices...)
	for i, opt := range options {
		cursor := "  "
		if i == m.typeCursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, opt))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	left := "q:quit  /:search  t:type  v:severity  s:sort  n/N:file  c:copy  esc:clear"
	right := fmt.Sprintf("%d/%d issues", len(m.filteredIssues), len(m.allIssues))

	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styleFooter.Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the browser on the terminal's alternate screen.
func Run(report *models.Report, sparkline []int) error {
	m := New(report, sparkline)
	m.osc = os.Stdout
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
