package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scanOutput  string
	scanFormat  string
	scanSave    bool
	scanExclude []string
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a source tree and print or export the report",
	Long: `Scan walks a file or directory, analyzes every included file and
produces a report with all issues and the validation score.

Scanning alone never gates: the exit code is 0 whenever the scan
completes, whatever it finds. Use 'codespectre validate' for CI gating.

Without --output the text summary is printed. With --output the format
defaults to the file extension (json, html, csv, xml, sarif).

Example:
  codespectre scan ./service
  codespectre scan ./service -o report.html
  codespectre scan ./service --format json --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "",
		"write the report to a file instead of stdout")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "",
		"output format: "+strings.Join(reporter.Formats, ", "))
	scanCmd.Flags().BoolVar(&scanSave, "save", false,
		"store the report in the run history")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil,
		"additional exclude globs")
}

func runScan(cmd *cobra.Command, args []string) error {
	log, err := newLogger("")
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	sc, lib, err := newScanner(log.Logger)
	if err != nil {
		return err
	}

	report, err := sc.Scan(commandContext(cmd), args[0], scanExclude)
	if err != nil {
		return &ExecutionError{Err: err}
	}
	if report.Partial {
		return &ExecutionError{Err: fmt.Errorf("scan interrupted after %d files", report.TotalFilesScanned)}
	}
	report.Recommendations = aggregator.GenerateRecommendations(report, lib)

	if scanSave {
		store, err := openHistory()
		if err != nil {
			return err
		}
		previous, _ := store.GetLatestRun()
		report.Trend = aggregator.CalculateTrend(report, previous)
		path, err := store.SaveReport(report)
		if err != nil {
			return &ExecutionError{Err: fmt.Errorf("failed to save report: %w", err)}
		}
		log.Info("report stored", zap.String("path", path))
	}

	format := scanFormat
	if format == "" {
		format = formatFromPath(scanOutput)
	}
	return writeOutput(cmd.OutOrStdout(), scanOutput, format, report)
}

// formatFromPath picks a format from an output file extension. No file
// means the text summary.
func formatFromPath(path string) string {
	if path == "" {
		return reporter.FormatText
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return reporter.FormatHTML
	case ".csv":
		return reporter.FormatCSV
	case ".xml":
		return reporter.FormatJUnit
	case ".sarif":
		return reporter.FormatSARIF
	case ".txt":
		return reporter.FormatText
	default:
		return reporter.FormatJSON
	}
}
