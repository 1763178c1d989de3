package tui

import (
	"sort"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	IssueType  string
	Severity   models.Severity
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortBySeverity sortField = iota
	sortByType
	sortByFile
	sortByDiscovery
)

const sortFieldCount = 4

func applyFilters(issues []models.Issue, f filterState) []models.Issue {
	result := make([]models.Issue, 0, len(issues))
	searchLower := strings.ToLower(f.SearchText)

	for _, issue := range issues {
		if f.IssueType != "" && issue.IssueType != f.IssueType {
			continue
		}
		if f.Severity != "" && issue.Severity != f.Severity {
			continue
		}
		if searchLower != "" && !matchesSearch(issue, searchLower) {
			continue
		}
		result = append(result, issue)
	}
	return result
}

func matchesSearch(issue models.Issue, searchLower string) bool {
	return strings.Contains(strings.ToLower(issue.FilePath), searchLower) ||
		strings.Contains(strings.ToLower(issue.IssueType), searchLower) ||
		strings.Contains(string(issue.Severity), searchLower) ||
		strings.Contains(strings.ToLower(issue.Description), searchLower) ||
		strings.Contains(strings.ToLower(issue.PatternMatched), searchLower)
}

// sortIssues sorts in place. The sort is stable, so issues passed in
// discovery order keep it among equal keys.
func sortIssues(issues []models.Issue, field sortField) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		switch field {
		case sortBySeverity:
			if a.Severity.Rank() != b.Severity.Rank() {
				return a.Severity.Rank() < b.Severity.Rank()
			}
		case sortByType:
			if a.IssueType != b.IssueType {
				return a.IssueType < b.IssueType
			}
		case sortByFile:
			if a.FilePath != b.FilePath {
				return a.FilePath < b.FilePath
			}
			if a.LineNumber != b.LineNumber {
				return a.LineNumber < b.LineNumber
			}
		}
		return false
	})
}

func uniqueTypes(issues []models.Issue) []string {
	seen := make(map[string]bool)
	var types []string
	for _, issue := range issues {
		if !seen[issue.IssueType] {
			seen[issue.IssueType] = true
			types = append(types, issue.IssueType)
		}
	}
	sort.Strings(types)
	return types
}

// nextSeverity cycles all -> critical -> high -> medium -> low -> all.
func nextSeverity(current models.Severity) models.Severity {
	if current == "" {
		return models.Severities[0]
	}
	for i, sev := range models.Severities {
		if sev == current && i+1 < len(models.Severities) {
			return models.Severities[i+1]
		}
	}
	return ""
}

func sortFieldName(f sortField) string {
	switch f {
	case sortBySeverity:
		return "severity"
	case sortByType:
		return "type"
	case sortByFile:
		return "file"
	case sortByDiscovery:
		return "discovery"
	default:
		return "unknown"
	}
}
