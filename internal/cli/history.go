package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/ppiankov/codespectre/internal/storage"
	"github.com/ppiankov/codespectre/internal/tui"
	"github.com/spf13/cobra"
)

var (
	historyLastN  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show score and issue trends across stored runs",
	Long: `History lists the most recent stored runs with their score and
issue counts, and draws sparklines of both over time.

Runs are stored by 'codespectre scan --save' and 'codespectre validate'.

Example:
  codespectre history
  codespectre history --last 30 --format json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLastN, "last", "n", 10,
		"number of runs to show")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text",
		"output format: text or json")
}

type historyEntry struct {
	Timestamp string                  `json:"timestamp"`
	Files     int                     `json:"files_scanned"`
	Issues    int                     `json:"issues"`
	Score     float64                 `json:"validation_score"`
	Readiness string                  `json:"readiness_level"`
	Duration  float64                 `json:"scan_duration_seconds"`
	Severity  map[models.Severity]int `json:"issues_by_severity"`
}

type historyDoc struct {
	Runs      []historyEntry `json:"runs"`
	Direction string         `json:"direction"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLastN <= 0 {
		return &ExecutionError{Err: fmt.Errorf("--last must be positive")}
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	runs, err := store.GetLastNRuns(historyLastN)
	if err != nil && !errors.Is(err, storage.ErrNoRuns) {
		return &ExecutionError{Err: err}
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs found.")
		fmt.Fprintln(out, "Run 'codespectre scan <path> --save' to record your first run.")
		return nil
	}

	doc := buildHistory(runs)
	switch historyFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "text":
		writeHistoryText(out, doc, runs)
		return nil
	default:
		return &ExecutionError{Err: fmt.Errorf("unsupported format: %s", historyFormat)}
	}
}

func buildHistory(runs []*models.Report) historyDoc {
	doc := historyDoc{Direction: "stable"}
	for _, run := range runs {
		doc.Runs = append(doc.Runs, historyEntry{
			Timestamp: run.ScanTimestamp.Format("2006-01-02 15:04:05"),
			Files:     run.TotalFilesScanned,
			Issues:    len(run.Issues),
			Score:     run.ValidationScore,
			Readiness: run.ReadinessLevel,
			Duration:  run.ScanDurationSeconds,
			Severity:  run.IssuesBySeverity,
		})
	}
	if len(runs) >= 2 {
		if trend := aggregator.CalculateTrend(runs[len(runs)-1], runs[0]); trend != nil {
			doc.Direction = trend.Direction
		}
	}
	return doc
}

func writeHistoryText(w io.Writer, doc historyDoc, runs []*models.Report) {
	fmt.Fprintf(w, "Runs: %d  Direction: %s %s\n", len(doc.Runs), doc.Direction, reporter.TrendIndicator(doc.Direction))
	fmt.Fprintln(w, strings.Repeat("-", 64))
	fmt.Fprintf(w, "%-19s  %6s  %6s  %7s  %s\n", "TIMESTAMP", "FILES", "ISSUES", "SCORE", "LEVEL")
	for _, e := range doc.Runs {
		fmt.Fprintf(w, "%-19s  %6d  %6d  %7.1f  %s\n", e.Timestamp, e.Files, e.Issues, e.Score, e.Readiness)
	}
	fmt.Fprintln(w)

	counts, scores := aggregator.Sparkline(runs)
	rounded := make([]int, len(scores))
	for i, s := range scores {
		rounded[i] = int(math.Round(s))
	}
	fmt.Fprintf(w, "Issues: %s\n", tui.Sparkline(counts))
	fmt.Fprintf(w, "Score:  %s\n", tui.Sparkline(rounded))
}
