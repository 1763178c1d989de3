package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/ppiankov/codespectre/internal/scanner"
	"github.com/ppiankov/codespectre/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchDebounce time.Duration
	watchSave     bool
	watchLimit    int
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-scan a directory whenever files change",
	Long: `Watch scans the directory once, then re-scans after every burst of
changes to included files and prints the summary with the change against
the previous scan. Excluded directories are not watched.

Stop with Ctrl+C.

Example:
  codespectre watch ./service
  codespectre watch . --debounce 1s --save`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period before re-scanning")
	watchCmd.Flags().BoolVar(&watchSave, "save", false,
		"store every scan in the run history")
	watchCmd.Flags().IntVar(&watchLimit, "limit", 10,
		"number of issues listed per scan")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger("")
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	sc, lib, err := newScanner(log.Logger)
	if err != nil {
		return err
	}

	session := &watchSession{
		root:    args[0],
		scanner: sc,
		lib:     lib,
		out:     cmd.OutOrStdout(),
		log:     log.Logger,
	}
	if watchSave {
		store, err := openHistory()
		if err != nil {
			return err
		}
		session.save = func(r *models.Report) error {
			_, err := store.SaveReport(r)
			return err
		}
	}

	w, err := watch.New(watch.Config{
		Root:     args[0],
		Debounce: watchDebounce,
		Relevant: sc.Relevant,
		OnChange: session.rescan,
		Logger:   log.Logger,
	})
	if err != nil {
		return &ExecutionError{Err: err}
	}
	defer w.Close()

	ctx := commandContext(cmd)
	session.rescan(ctx)
	fmt.Fprintf(session.out, "\nWatching %s for changes (Ctrl+C to stop)\n", args[0])

	if err := w.Run(ctx); err != nil {
		return &ExecutionError{Err: err}
	}
	return nil
}

// watchSession carries the previous report between scans.
type watchSession struct {
	root     string
	scanner  *scanner.Scanner
	lib      aggregator.RemediationSource
	out      io.Writer
	log      *zap.Logger
	save     func(*models.Report) error
	previous *models.Report
}

func (s *watchSession) rescan(ctx context.Context) {
	report, err := s.scanner.Scan(ctx, s.root, nil)
	if err != nil {
		s.log.Error("scan failed", zap.Error(err))
		return
	}
	if report.Partial {
		// cancelled mid-scan, the next run replaces it
		return
	}
	report.Recommendations = aggregator.GenerateRecommendations(report, s.lib)
	report.Trend = aggregator.CalculateTrend(report, s.previous)
	s.previous = report

	fmt.Fprintf(s.out, "\n[%s] ", report.ScanTimestamp.Local().Format("15:04:05"))
	if err := reporter.NewTextReporter(s.out, isTerminal(s.out)).WithIssueLimit(watchLimit).Generate(report); err != nil {
		s.log.Error("render failed", zap.Error(err))
	}

	if s.save != nil {
		if err := s.save(report); err != nil {
			s.log.Warn("failed to save run history", zap.Error(err))
		}
	}
}
