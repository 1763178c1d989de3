package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/spf13/cobra"
)

var (
	diffFormat  string
	diffOutput  string
	diffFailNew bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [before.json after.json]",
	Short: "Show what changed between two reports",
	Long: `Compare two reports to show new and resolved issues.

Issues are matched by file, type, pattern and description, so an issue
that only moved to another line is not reported as new.

By default compares the two most recent stored runs. With one argument
the given report is compared against the latest stored run; with two
arguments both reports are read from files.

Exit codes:
  0  No new issues (or --fail-new not set)
  1  New issues detected (with --fail-new)

Example:
  codespectre diff
  codespectre diff --fail-new
  codespectre diff baseline.json --format json`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text",
		"output format: text or json")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "",
		"write output to file instead of stdout")
	diffCmd.Flags().BoolVar(&diffFailNew, "fail-new", false,
		"exit 1 if new issues are found (for CI gating)")
}

// diffOutputDoc is the structured output of a diff.
type diffOutputDoc struct {
	Before  string         `json:"before"`
	After   string         `json:"after"`
	New     []models.Issue `json:"new_issues"`
	Fixed   []models.Issue `json:"resolved_issues"`
	Summary diffSummary    `json:"summary"`
}

type diffSummary struct {
	BeforeTotal   int                     `json:"before_total"`
	AfterTotal    int                     `json:"after_total"`
	NewCount      int                     `json:"new_count"`
	ResolvedCount int                     `json:"resolved_count"`
	Unchanged     int                     `json:"unchanged"`
	Delta         int                     `json:"delta"`
	ScoreBefore   float64                 `json:"score_before"`
	ScoreAfter    float64                 `json:"score_after"`
	NewBySeverity map[models.Severity]int `json:"new_by_severity"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, after, err := loadDiffReports(args)
	if err != nil {
		return err
	}

	doc := computeDiff(before, after)

	out := cmd.OutOrStdout()
	if diffOutput != "" {
		f, err := os.Create(diffOutput)
		if err != nil {
			return &ExecutionError{Err: fmt.Errorf("failed to create output file: %w", err)}
		}
		defer f.Close()
		out = f
	}

	switch diffFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return &ExecutionError{Err: err}
		}
	case "text":
		writeDiffText(out, doc)
	default:
		return &ExecutionError{Err: fmt.Errorf("unsupported format: %s", diffFormat)}
	}

	if diffFailNew && doc.Summary.NewCount > 0 {
		return &PolicyFailureError{Reason: fmt.Sprintf("%d new issue(s)", doc.Summary.NewCount)}
	}
	return nil
}

func loadDiffReports(args []string) (*models.Report, *models.Report, error) {
	switch len(args) {
	case 2:
		before, err := loadReport(args[0])
		if err != nil {
			return nil, nil, err
		}
		after, err := loadReport(args[1])
		if err != nil {
			return nil, nil, err
		}
		return before, after, nil
	case 1:
		before, err := loadReport(args[0])
		if err != nil {
			return nil, nil, err
		}
		after, err := loadReport("")
		if err != nil {
			return nil, nil, err
		}
		return before, after, nil
	}

	store, err := openHistory()
	if err != nil {
		return nil, nil, err
	}
	runs, err := store.GetLastNRuns(2)
	if err != nil {
		return nil, nil, &ExecutionError{Err: err}
	}
	if len(runs) < 2 {
		return nil, nil, &ExecutionError{Err: fmt.Errorf("need at least 2 stored runs for diff, found %d", len(runs))}
	}
	return runs[0], runs[1], nil
}

func computeDiff(before, after *models.Report) diffOutputDoc {
	d := aggregator.Diff(before, after)
	doc := diffOutputDoc{
		Before: before.ScanTimestamp.Format("2006-01-02 15:04:05"),
		After:  after.ScanTimestamp.Format("2006-01-02 15:04:05"),
		New:    d.New,
		Fixed:  d.Resolved,
		Summary: diffSummary{
			BeforeTotal:   len(before.Issues),
			AfterTotal:    len(after.Issues),
			NewCount:      len(d.New),
			ResolvedCount: len(d.Resolved),
			Unchanged:     d.Unchanged,
			Delta:         len(after.Issues) - len(before.Issues),
			ScoreBefore:   before.ValidationScore,
			ScoreAfter:    after.ValidationScore,
			NewBySeverity: aggregator.CountBySeverity(d.New),
		},
	}
	if doc.New == nil {
		doc.New = []models.Issue{}
	}
	if doc.Fixed == nil {
		doc.Fixed = []models.Issue{}
	}
	return doc
}

func writeDiffText(w io.Writer, doc diffOutputDoc) {
	s := doc.Summary
	fmt.Fprintf(w, "Diff: %s → %s\n", doc.Before, doc.After)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Issues: %d → %d (%+d)\n", s.BeforeTotal, s.AfterTotal, s.Delta)
	fmt.Fprintf(w, "Score: %.1f → %.1f\n", s.ScoreBefore, s.ScoreAfter)
	fmt.Fprintf(w, "New: %d  Resolved: %d  Unchanged: %d\n", s.NewCount, s.ResolvedCount, s.Unchanged)

	if len(doc.New) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "New issues:")
		for _, issue := range doc.New {
			fmt.Fprintf(w, "  + [%s] %s:%d %s\n", strings.ToUpper(string(issue.Severity)), issue.FilePath, issue.LineNumber, issue.Description)
		}
	}
	if len(doc.Fixed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Resolved issues:")
		for _, issue := range doc.Fixed {
			fmt.Fprintf(w, "  - [%s] %s:%d %s\n", strings.ToUpper(string(issue.Severity)), issue.FilePath, issue.LineNumber, issue.Description)
		}
	}
	if s.NewCount == 0 && s.ResolvedCount == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No changes.")
	}
}
