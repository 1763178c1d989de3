package reporter

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/ppiankov/codespectre/internal/models"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	Help             *sarifMessage      `json:"help,omitempty"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// SARIFReporter renders SARIF 2.1.0 for code scanning dashboards.
type SARIFReporter struct {
	writer  io.Writer
	version string
}

// NewSARIFReporter creates a new SARIF reporter
func NewSARIFReporter(writer io.Writer, version string) *SARIFReporter {
	return &SARIFReporter{writer: writer, version: version}
}

// Generate writes the SARIF log.
func (r *SARIFReporter) Generate(report *models.Report) error {
	rulesMap := map[string]sarifRule{}
	results := make([]sarifResult, 0, len(report.Issues))

	for _, issue := range report.Issues {
		if _, exists := rulesMap[issue.IssueType]; !exists {
			rule := sarifRule{
				ID:               issue.IssueType,
				ShortDescription: sarifMessage{Text: issue.IssueType},
				DefaultConfig:    sarifDefaultConfig{Level: sarifLevel(issue.Severity)},
			}
			if issue.SuggestedFix != "" {
				rule.Help = &sarifMessage{Text: issue.SuggestedFix}
			}
			rulesMap[issue.IssueType] = rule
		}
		results = append(results, sarifResult{
			RuleID:  issue.IssueType,
			Level:   sarifLevel(issue.Severity),
			Message: sarifMessage{Text: issue.Description},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysical{
					ArtifactLocation: sarifArtifact{URI: issue.FilePath},
					Region:           sarifRegion{StartLine: issue.LineNumber},
				},
			}},
		})
	}

	rules := make([]sarifRule, 0, len(rulesMap))
	for _, rule := range rulesMap {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "codespectre", Version: r.version, Rules: rules}},
			Results: results,
		}},
	}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifLevel(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
