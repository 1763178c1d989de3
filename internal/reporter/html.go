package reporter

import (
	"html/template"
	"io"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper": func(s models.Severity) string { return strings.ToUpper(string(s)) },
	"color": func(s models.Severity) string { return htmlColors[s] },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CodeSpectre Validation Report</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
.summary { background: #f4f6f8; padding: 1em 1.5em; border-radius: 6px; margin-bottom: 1.5em; }
.summary td { padding: 2px 12px 2px 0; }
.issue { border-left: 6px solid #999; padding: 0.5em 1em; margin: 0.5em 0; background: #fafafa; }
.issue .loc { font-family: monospace; color: #555; }
.issue .fix { color: #2a6; font-size: 0.9em; }
.sev { font-weight: bold; }
</style>
</head>
<body>
<h1>CodeSpectre Validation Report</h1>
<div class="summary">
<table>
<tr><td>Root</td><td>{{.RootPath}}</td></tr>
<tr><td>Timestamp</td><td>{{.ScanTimestamp.Format "2006-01-02 15:04:05 MST"}}</td></tr>
<tr><td>Validation score</td><td><strong>{{printf "%.1f" .ValidationScore}}</strong> / 100 ({{.ReadinessLevel}})</td></tr>
<tr><td>Files scanned</td><td>{{.TotalFilesScanned}}</td></tr>
<tr><td>Total issues</td><td>{{len .Issues}}</td></tr>
{{range $sev := .Severities}}<tr><td style="color: {{color $sev}}">{{upper $sev}}</td><td>{{index $.IssuesBySeverity $sev}}</td></tr>
{{end}}<tr><td>Duration</td><td>{{printf "%.2f" .ScanDurationSeconds}}s</td></tr>
<tr><td>Whitelist applied</td><td>{{.WhitelistApplied}}</td></tr>
{{if .Partial}}<tr><td colspan="2"><strong>Scan interrupted: partial report</strong></td></tr>{{end}}
</table>
</div>
<h2>Issues</h2>
{{range .Issues}}<div class="issue" style="border-left-color: {{color .Severity}}">
<span class="sev" style="color: {{color .Severity}}">{{upper .Severity}}</span> {{.IssueType}}
<div class="loc">{{.FilePath}}:{{.LineNumber}}</div>
<div>{{.Description}}</div>
{{if .SuggestedFix}}<div class="fix">Fix: {{.SuggestedFix}}</div>{{end}}
</div>
{{else}}<p>No issues found.</p>
{{end}}
</body>
</html>
`))

var htmlColors = map[models.Severity]string{
	models.SeverityCritical: "#d32f2f",
	models.SeverityHigh:     "#f57c00",
	models.SeverityMedium:   "#fbc02d",
	models.SeverityLow:      "#1976d2",
}

// HTMLReporter renders a standalone HTML page.
type HTMLReporter struct {
	writer io.Writer
}

// NewHTMLReporter creates a new HTML reporter
func NewHTMLReporter(writer io.Writer) *HTMLReporter {
	return &HTMLReporter{writer: writer}
}

// Generate writes the HTML report.
func (r *HTMLReporter) Generate(report *models.Report) error {
	data := struct {
		*models.Report
		Severities []models.Severity
	}{report, models.Severities}
	return htmlTemplate.Execute(r.writer, data)
}
