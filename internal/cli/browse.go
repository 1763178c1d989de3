package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/tui"
	"github.com/spf13/cobra"
)

// browseSparkRuns is how many stored runs feed the header sparkline.
const browseSparkRuns = 10

var browseCmd = &cobra.Command{
	Use:   "browse [report.json]",
	Short: "Browse issues interactively",
	Long: `Browse opens an interactive issue table for a report (the latest
stored run by default). Filter by issue type (t) or severity (v), search
(/), cycle the sort order (s), jump between files (n/N) and copy the
selected issue (c).

Requires an interactive terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return &ExecutionError{Err: fmt.Errorf("browse requires an interactive terminal; use 'codespectre export' instead")}
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	report, err := loadReport(path)
	if err != nil {
		return err
	}

	var sparkline []int
	if store, err := openHistory(); err == nil {
		if runs, err := store.GetLastNRuns(browseSparkRuns); err == nil && len(runs) > 1 {
			sparkline, _ = aggregator.Sparkline(runs)
		}
	}

	if err := tui.Run(report, sparkline); err != nil {
		return &ExecutionError{Err: err}
	}
	return nil
}
