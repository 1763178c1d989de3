package reporter

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/codespectre/internal/models"
)

// JSONReporter generates machine-readable JSON reports
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// Generate writes the full report followed by a newline.
func (r *JSONReporter) Generate(report *models.Report) error {
	return r.encode(report)
}

// GeneratePipelineResult writes a pipeline decision together with its report.
func (r *JSONReporter) GeneratePipelineResult(result *models.PipelineResult) error {
	out := struct {
		*models.PipelineResult
		Status string         `json:"status"`
		Report *models.Report `json:"report,omitempty"`
	}{result, result.Status(), result.Report}
	return r.encode(out)
}

func (r *JSONReporter) encode(v interface{}) error {
	enc := json.NewEncoder(r.writer)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
