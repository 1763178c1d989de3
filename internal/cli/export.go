package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [report.json]",
	Short: "Re-render a stored or saved report",
	Long: `Export renders an existing JSON report in another format without
scanning again. Without an argument the latest stored run is used.

Supported formats:
  json   Structured JSON
  html   Standalone HTML page
  csv    One row per issue
  junit  JUnit XML, one testcase per file with issues
  sarif  SARIF 2.1.0 for code scanning
  text   Human-readable summary

Example:
  codespectre export --format junit -o results.xml
  codespectre export validation_results/validation_report_20260301_120000.json --format sarif`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "",
		"output format: "+strings.Join(reporter.Formats, ", ")+" (default from --output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write output to file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	report, err := loadReport(path)
	if err != nil {
		return err
	}

	format := exportFormat
	if format == "" {
		format = formatFromPath(exportOutput)
	}
	return writeOutput(cmd.OutOrStdout(), exportOutput, format, report)
}

// writeOutput renders report to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path, format string, report *models.Report) error {
	if path == "" {
		return renderReport(stdout, format, report, isTerminal(stdout))
	}

	f, err := os.Create(path)
	if err != nil {
		return &ExecutionError{Err: fmt.Errorf("failed to create output file: %w", err)}
	}
	if err := renderReport(f, format, report, false); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &ExecutionError{Err: err}
	}
	fmt.Fprintf(stdout, "Report written to %s\n", path)
	return nil
}

// renderReport adds terminal colors and the build version to reporter.Write.
func renderReport(w io.Writer, format string, report *models.Report, color bool) error {
	var err error
	switch strings.ToLower(format) {
	case reporter.FormatText:
		err = reporter.NewTextReporter(w, color).Generate(report)
	case reporter.FormatSARIF:
		err = reporter.NewSARIFReporter(w, version).Generate(report)
	default:
		err = reporter.Write(format, w, report)
	}
	if err != nil {
		return &ExecutionError{Err: err}
	}
	return nil
}
