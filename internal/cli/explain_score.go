package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/spf13/cobra"
)

var explainFormat string

var explainScoreCmd = &cobra.Command{
	Use:   "explain-score [report.json]",
	Short: "Show the validation score formula step by step",
	Long: `Explain-score loads a report (the latest stored run by default) and
shows exactly how the validation score was calculated:

  1. Issues per severity and their weights
  2. The weighted total
  3. The maximum possible: files scanned * 10
  4. The formula: score = max(0, 100 - weighted / max * 100)
  5. The readiness level thresholds`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplainScore,
}

func init() {
	explainScoreCmd.Flags().StringVar(&explainFormat, "format", "text",
		"output format: text or json")
}

type explainResult struct {
	PerSeverity  []severityContribution `json:"per_severity"`
	Weighted     int                    `json:"weighted_total"`
	FilesScanned int                    `json:"files_scanned"`
	MaxPossible  int                    `json:"max_possible"`
	Score        float64                `json:"score"`
	Readiness    string                 `json:"readiness_level"`
	Formula      string                 `json:"formula"`
	Thresholds   []threshold            `json:"thresholds"`
}

type severityContribution struct {
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
	Weight   int             `json:"weight"`
	Points   int             `json:"points"`
}

type threshold struct {
	Min   float64 `json:"min"`
	Label string  `json:"label"`
}

func runExplainScore(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	report, err := loadReport(path)
	if err != nil {
		return err
	}

	result := buildExplanation(report)

	out := cmd.OutOrStdout()
	switch explainFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		writeExplainText(out, result)
		return nil
	default:
		return &ExecutionError{Err: fmt.Errorf("unsupported format: %s", explainFormat)}
	}
}

// buildExplanation recomputes the score from the severity counts, so a
// hand-edited report is explained by what it contains.
func buildExplanation(report *models.Report) explainResult {
	result := explainResult{
		FilesScanned: report.TotalFilesScanned,
		MaxPossible:  report.TotalFilesScanned * models.SeverityCritical.Weight(),
		Thresholds: []threshold{
			{Min: 95, Label: "excellent"},
			{Min: 85, Label: "good"},
			{Min: 70, Label: "warning"},
			{Min: 50, Label: "critical"},
			{Min: 0, Label: "severe"},
		},
	}

	bySeverity := aggregator.CountBySeverity(report.Issues)
	for _, sev := range models.Severities {
		c := severityContribution{
			Severity: sev,
			Count:    bySeverity[sev],
			Weight:   sev.Weight(),
		}
		c.Points = c.Count * c.Weight
		result.Weighted += c.Points
		result.PerSeverity = append(result.PerSeverity, c)
	}

	result.Score = aggregator.CalculateScore(bySeverity, report.TotalFilesScanned)
	result.Readiness = aggregator.ReadinessLevel(result.Score)
	if result.MaxPossible > 0 {
		result.Formula = fmt.Sprintf("max(0, 100 - %d / %d * 100) = %.1f",
			result.Weighted, result.MaxPossible, result.Score)
	} else {
		result.Formula = "no files scanned = 100.0"
	}
	return result
}

func writeExplainText(w io.Writer, result explainResult) {
	fmt.Fprintln(w, "Validation Score Breakdown")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "1. Issues by severity:")
	for _, c := range result.PerSeverity {
		fmt.Fprintf(w, "   %-10s  %3d x %2d = %d\n", c.Severity, c.Count, c.Weight, c.Points)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "2. Weighted total: %d\n", result.Weighted)
	fmt.Fprintf(w, "3. Max possible: %d files x 10 = %d\n", result.FilesScanned, result.MaxPossible)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "4. Formula:")
	fmt.Fprintln(w, "   score = max(0, 100 - weighted / max * 100)")
	fmt.Fprintf(w, "   score = %s\n", result.Formula)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "5. Thresholds:")
	for _, t := range result.Thresholds {
		marker := "  "
		if result.Readiness == t.Label {
			marker = "→ "
		}
		fmt.Fprintf(w, "   %s≥ %.0f  %s\n", marker, t.Min, t.Label)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Result: %.1f/100 (%s)\n", result.Score, strings.ToUpper(result.Readiness))
}
