package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ppiankov/codespectre/internal/models"
)

// CSVHeader is the column order of the CSV export: the seven issue fields.
var CSVHeader = []string{"file_path", "line_number", "issue_type", "severity", "description", "pattern_matched", "suggested_fix"}

// CSVReporter writes one row per issue.
type CSVReporter struct {
	writer io.Writer
}

// NewCSVReporter creates a new CSV reporter
func NewCSVReporter(writer io.Writer) *CSVReporter {
	return &CSVReporter{writer: writer}
}

// Generate writes the header row followed by one row per issue.
func (r *CSVReporter) Generate(report *models.Report) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	for _, issue := range report.Issues {
		row := []string{
			issue.FilePath,
			strconv.Itoa(issue.LineNumber),
			issue.IssueType,
			string(issue.Severity),
			issue.Description,
			issue.PatternMatched,
			issue.SuggestedFix,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
