package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []junitProperty `xml:"properties>property"`
	Cases      []junitCase     `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitReporter renders one testcase per file with issues, plus one passing
// testcase standing for all clean files.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a new JUnit XML reporter
func NewJUnitReporter(writer io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: writer}
}

// Generate writes the JUnit XML document.
func (r *JUnitReporter) Generate(report *models.Report) error {
	byFile := make(map[string][]models.Issue)
	files := report.FilesWithIssues()
	for _, issue := range report.Issues {
		byFile[issue.FilePath] = append(byFile[issue.FilePath], issue)
	}

	suite := junitSuite{
		Name:      "codespectre.validation",
		Failures:  len(files),
		Time:      strconv.FormatFloat(report.ScanDurationSeconds, 'f', 3, 64),
		Timestamp: report.ScanTimestamp.UTC().Format(time.RFC3339),
		Properties: []junitProperty{
			{Name: "validation_score", Value: strconv.FormatFloat(report.ValidationScore, 'f', 2, 64)},
			{Name: "critical_issues", Value: strconv.Itoa(report.Count(models.SeverityCritical))},
			{Name: "high_issues", Value: strconv.Itoa(report.Count(models.SeverityHigh))},
		},
	}

	for _, file := range files {
		lines := make([]string, 0, len(byFile[file]))
		for _, issue := range byFile[file] {
			lines = append(lines, fmt.Sprintf("Line %d: [%s] %s - %s",
				issue.LineNumber, strings.ToUpper(string(issue.Severity)), issue.IssueType, issue.Description))
		}
		msg := strings.Join(lines, "\n")
		suite.Cases = append(suite.Cases, junitCase{
			Name:      file,
			ClassName: "codespectre.files",
			Failure:   &junitFailure{Message: msg, Type: "ValidationFailure", Body: msg},
		})
	}

	passing := report.TotalFilesScanned - len(files)
	if passing > 0 {
		suite.Cases = append(suite.Cases, junitCase{
			Name:      fmt.Sprintf("%d files passed validation", passing),
			ClassName: "codespectre.files",
		})
	}
	suite.Tests = len(suite.Cases)

	if _, err := io.WriteString(r.writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(r.writer)
	enc.Indent("", "  ")
	if err := enc.Encode(junitSuites{Suites: []junitSuite{suite}}); err != nil {
		return err
	}
	_, err := io.WriteString(r.writer, "\n")
	return err
}
