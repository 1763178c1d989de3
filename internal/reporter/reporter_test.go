package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
)

func testReport() *models.Report {
	r := &models.Report{
		ScanTimestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RootPath:            "./service",
		TotalFilesScanned:   10,
		WhitelistApplied:    true,
		ScanDurationSeconds: 1.5,
		Issues: []models.Issue{
			{FilePath: "app/settings.py", LineNumber: 3, IssueType: "hardcoded_password", Severity: models.SeverityCritical,
				Description: `Hardcoded password: "hu*****" (assigned to password)`, PatternMatched: "(?i)(passwd|password)", SuggestedFix: "Use a secret store"},
			{FilePath: "app/settings.py", LineNumber: 7, IssueType: "hardcoded_port", Severity: models.SeverityMedium,
				Description: `Hardcoded port number: "8080"`, PatternMatched: `^([1-9]\d{3,4})$`},
			{FilePath: "app/client.py", LineNumber: 1, IssueType: "hardcoded_url", Severity: models.SeverityMedium,
				Description: `Hardcoded URL: "https://a.example.com/x?a=1&b=<2>"`, PatternMatched: "url"},
		},
	}
	aggregator.Finalize(r)
	return r
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONReporter(&buf, true).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	var got models.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Issues) != 3 || got.ValidationScore != 86 || got.IssuesBySeverity[models.SeverityCritical] != 1 {
		t.Errorf("decoded report = %+v", got)
	}
	for _, key := range []string{`"scan_timestamp"`, `"total_files_scanned"`, `"issues_by_type"`, `"whitelist_applied"`, `"scan_duration_seconds"`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("missing key %s", key)
		}
	}
}

func TestCSVColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVReporter(&buf).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "file_path,line_number,issue_type,severity,description,pattern_matched,suggested_fix" {
		t.Errorf("header = %v", rows[0])
	}
	for _, row := range rows {
		if len(row) != 7 {
			t.Errorf("row has %d columns: %v", len(row), row)
		}
	}
	if rows[1][1] != "3" || rows[1][3] != "critical" || rows[1][6] != "Use a secret store" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestJUnitStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJUnitReporter(&buf).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	var doc junitSuites
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid XML: %v\n%s", err, buf.String())
	}
	suite := doc.Suites[0]
	// two failing files + one passing aggregate
	if suite.Tests != 3 || suite.Failures != 2 || len(suite.Cases) != 3 {
		t.Errorf("tests=%d failures=%d cases=%d", suite.Tests, suite.Failures, len(suite.Cases))
	}
	if suite.Time != "1.500" || suite.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("time=%s timestamp=%s", suite.Time, suite.Timestamp)
	}
	props := map[string]string{}
	for _, p := range suite.Properties {
		props[p.Name] = p.Value
	}
	if props["validation_score"] != "86.00" || props["critical_issues"] != "1" || props["high_issues"] != "0" {
		t.Errorf("properties = %v", props)
	}

	first := suite.Cases[0]
	if first.Name != "app/settings.py" || first.Failure == nil {
		t.Fatalf("first case = %+v", first)
	}
	want := "Line 3: [CRITICAL] hardcoded_password - Hardcoded password: \"hu*****\" (assigned to password)\n" +
		"Line 7: [MEDIUM] hardcoded_port - Hardcoded port number: \"8080\""
	if first.Failure.Message != want {
		t.Errorf("failure message = %q", first.Failure.Message)
	}
	if last := suite.Cases[2]; last.Failure != nil || last.Name != "8 files passed validation" {
		t.Errorf("passing case = %+v", last)
	}
}

func TestJUnitNoPassingCaseWhenAllFail(t *testing.T) {
	r := testReport()
	r.TotalFilesScanned = 2
	var buf bytes.Buffer
	if err := NewJUnitReporter(&buf).Generate(r); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "passed validation") {
		t.Error("unexpected passing testcase")
	}
}

func TestHTMLEscapesAndColors(t *testing.T) {
	var buf bytes.Buffer
	if err := NewHTMLReporter(&buf).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, frag := range []string{"86.0", "CRITICAL", "#d32f2f", "app/settings.py:3", "Use a secret store", "&lt;2&gt;"} {
		if !strings.Contains(out, frag) {
			t.Errorf("HTML missing %q", frag)
		}
	}
	if strings.Contains(out, "<2>") {
		t.Error("description not escaped")
	}
}

func TestHTMLEmptyReport(t *testing.T) {
	r := &models.Report{}
	aggregator.Finalize(r)
	var buf bytes.Buffer
	if err := NewHTMLReporter(&buf).Generate(r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues found.") {
		t.Error("expected empty message")
	}
}

func TestSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSARIFReporter(&buf, "1.0.0").Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if len(log.Runs[0].Results) != 3 || len(log.Runs[0].Tool.Driver.Rules) != 3 {
		t.Errorf("results=%d rules=%d", len(log.Runs[0].Results), len(log.Runs[0].Tool.Driver.Rules))
	}
	if got := log.Runs[0].Results[0]; got.Level != "error" || got.Locations[0].PhysicalLocation.Region.StartLine != 3 {
		t.Errorf("first result = %+v", got)
	}
}

func TestTextSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, frag := range []string{"Files Scanned: 10", "Total Issues: 3", "Validation Score: 86.0/100 (GOOD)", "CRITICAL", "app/settings.py:3"} {
		if !strings.Contains(out, frag) {
			t.Errorf("text missing %q\n%s", frag, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("color disabled but ANSI escapes present")
	}
}

func TestTextIssueLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).WithIssueLimit(1).Generate(testReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "... and 2 more") {
		t.Errorf("limit not applied:\n%s", buf.String())
	}
}

func pipelineResult() *models.PipelineResult {
	return &models.PipelineResult{
		Passed:     false,
		ExitCode:   models.ExitPolicyFailure,
		FailedGate: "fail_on_critical",
		Violations: []models.GateViolation{
			{Gate: "fail_on_critical", Message: "1 critical issue(s)"},
			{Gate: "score_threshold", Message: "score 86.0 below threshold 95.0"},
		},
		PerformanceRegression: true,
		BaselineComparison:    &models.BaselineComparison{BaselineDuration: 1, CurrentDuration: 1.5, DurationRatio: 1.5},
		Notifications:         []models.NotificationResult{{Kind: "slack", Endpoint: "https://hooks.example.com/x", Error: "timeout"}},
		Report:                testReport(),
	}
}

func TestMarkdownSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownReporter(&buf).Generate(pipelineResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, frag := range []string{"**Status:** FAIL (exit code 1)", "**fail_on_critical** (decisive)", "**score_threshold**", "Performance regression: **true**", "| critical | 1 |", "failed (timeout)"} {
		if !strings.Contains(out, frag) {
			t.Errorf("markdown missing %q\n%s", frag, out)
		}
	}
}

func TestTextPipelineResult(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GeneratePipelineResult(pipelineResult()); err != nil {
		t.Fatal(err)
	}
	for _, frag := range []string{"Status: FAIL (exit code 1)", "Failed gate: fail_on_critical", "Performance regression"} {
		if !strings.Contains(buf.String(), frag) {
			t.Errorf("missing %q", frag)
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write("pdf", &bytes.Buffer{}, testReport()); err == nil {
		t.Error("expected error")
	}
	for _, f := range Formats {
		if err := Write(f, &bytes.Buffer{}, testReport()); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
}
