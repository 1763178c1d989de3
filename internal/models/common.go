package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the ordinal classification of an issue.
type Severity string

// Severity levels for issues
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists all levels from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Weight returns the scoring weight of a severity level.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 10
	case SeverityHigh:
		return 5
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Rank orders severities, critical first. Unknown levels sort last.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if s == sev {
			return i
		}
	}
	return len(Severities)
}

// Valid reports whether s is one of the four known levels.
func (s Severity) Valid() bool {
	return s.Rank() < len(Severities)
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(value string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(value)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q (must be critical, high, medium or low)", value)
	}
	return sev, nil
}

// Issue types produced outside the pattern library.
const (
	IssueTypeScanError           = "scan_error"
	IssueTypeDeprecatedComponent = "deprecated_component_pattern"
	IssueTypeComponentScanError  = "component_scan_error"
)

// Issue is one finding: a matched pattern at a specific file and line.
type Issue struct {
	FilePath       string   `json:"file_path"`
	LineNumber     int      `json:"line_number"`
	IssueType      string   `json:"issue_type"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	PatternMatched string   `json:"pattern_matched"`
	SuggestedFix   string   `json:"suggested_fix,omitempty"`
}

// Key identifies an issue across runs independent of line movement.
func (i Issue) Key() string {
	return i.FilePath + "|" + i.IssueType + "|" + i.PatternMatched + "|" + i.Description
}

// Report is the result of one full scan.
type Report struct {
	ScanTimestamp       time.Time        `json:"scan_timestamp"`
	RootPath            string           `json:"root_path,omitempty"`
	TotalFilesScanned   int              `json:"total_files_scanned"`
	Issues              []Issue          `json:"issues"`
	IssuesBySeverity    map[Severity]int `json:"issues_by_severity"`
	IssuesByType        map[string]int   `json:"issues_by_type"`
	ValidationScore     float64          `json:"validation_score"`
	ReadinessLevel      string           `json:"readiness_level,omitempty"`
	WhitelistApplied    bool             `json:"whitelist_applied"`
	ScanDurationSeconds float64          `json:"scan_duration_seconds"`
	Partial             bool             `json:"partial,omitempty"`
	Trend               *Trend           `json:"trend,omitempty"`
	Recommendations     []Recommendation `json:"recommendations,omitempty"`
}

// Count returns the number of issues at the given severity.
func (r *Report) Count(sev Severity) int {
	if r == nil || r.IssuesBySeverity == nil {
		return 0
	}
	return r.IssuesBySeverity[sev]
}

// FilesWithIssues returns the distinct file paths carrying at least one issue,
// in first-seen order.
func (r *Report) FilesWithIssues() []string {
	seen := make(map[string]bool)
	var files []string
	for _, issue := range r.Issues {
		if !seen[issue.FilePath] {
			seen[issue.FilePath] = true
			files = append(files, issue.FilePath)
		}
	}
	return files
}

// Trend represents change between current and previous run
type Trend struct {
	Direction      string    `json:"direction"`      // "improving", "degrading", "stable"
	ChangePercent  float64   `json:"change_percent"` // negative = improvement
	PreviousIssues int       `json:"previous_issues"`
	CurrentIssues  int       `json:"current_issues"`
	PreviousScore  float64   `json:"previous_score"`
	CurrentScore   float64   `json:"current_score"`
	ComparedWith   time.Time `json:"compared_with"`
	NewIssues      int       `json:"new_issues"`
	ResolvedIssues int       `json:"resolved_issues"`
}

// Recommendation is an actionable item grouped by issue type.
type Recommendation struct {
	Severity  Severity `json:"severity"`
	IssueType string   `json:"issue_type"`
	Action    string   `json:"action"`
	Impact    string   `json:"impact"`
	Count     int      `json:"count"`
	Files     int      `json:"files"`
}
