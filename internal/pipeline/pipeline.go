// Package pipeline runs a scan as a CI quality gate: it evaluates the
// gates, compares against the performance baseline, writes artifacts and
// notifies external endpoints.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/notify"
	"github.com/ppiankov/codespectre/internal/policy"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/ppiankov/codespectre/internal/storage"
	"go.uber.org/zap"
)

// ArtifactTimeFormat is the timestamp embedded in artifact file names.
const ArtifactTimeFormat = "20060102_150405"

// ArtifactFormats are the report formats written on every run.
var ArtifactFormats = []string{reporter.FormatJSON, reporter.FormatHTML, reporter.FormatCSV, reporter.FormatJUnit}

// Scanner produces a report for a tree.
type Scanner interface {
	Scan(ctx context.Context, root string, excludeGlobs []string) (*models.Report, error)
}

// Options configure one pipeline run.
type Options struct {
	ProjectPath  string
	ExcludeGlobs []string
	OutputDir    string
	Gates        policy.Gates

	// Baseline is read before and conditionally written after the run.
	// Nil disables the regression check.
	Baseline storage.BaselineStore

	// History, when set, receives every completed report and provides the
	// previous run for trend analysis.
	History storage.Storage

	Notifier    *notify.Dispatcher
	Remediation aggregator.RemediationSource
}

// Orchestrator runs pipelines.
type Orchestrator struct {
	scanner Scanner
	log     *zap.Logger
}

// New creates an orchestrator around a scanner.
func New(scanner Scanner, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{scanner: scanner, log: log}
}

// Run executes the pipeline. It always returns a result; the exit code
// carries the outcome.
func (o *Orchestrator) Run(ctx context.Context, opts Options) *models.PipelineResult {
	report, err := o.scanner.Scan(ctx, opts.ProjectPath, opts.ExcludeGlobs)
	if err != nil {
		o.log.Error("scanner execution failed", zap.String("path", opts.ProjectPath), zap.Error(err))
		return &models.PipelineResult{
			Passed:   false,
			ExitCode: models.ExitExecutionError,
			Error:    err.Error(),
		}
	}

	if opts.Remediation != nil {
		report.Recommendations = aggregator.GenerateRecommendations(report, opts.Remediation)
	}
	o.attachTrend(report, opts.History)

	decision := opts.Gates.Evaluate(report)
	result := &models.PipelineResult{
		Passed:     decision.Pass,
		FailedGate: decision.FailedGate,
		Violations: decision.Violations,
		Report:     report,
	}
	switch {
	case report.Partial:
		result.Passed = false
		result.ExitCode = models.ExitExecutionError
		result.Error = "scan interrupted before all files were analyzed"
	case decision.Pass:
		result.ExitCode = models.ExitPass
	default:
		result.ExitCode = models.ExitPolicyFailure
	}
	o.log.Info("gates evaluated",
		zap.Bool("passed", decision.Pass),
		zap.String("failed_gate", decision.FailedGate),
		zap.Int("violations", len(decision.Violations)))

	// the regression check is informational and runs on every outcome
	var baseline *models.PerformanceBaseline
	if opts.Baseline != nil {
		baseline, err = opts.Baseline.Load()
		if err != nil {
			o.log.Warn("performance baseline unreadable, skipping regression check", zap.Error(err))
			baseline = nil
		}
	}
	if baseline != nil {
		result.BaselineComparison = Compare(baseline, report)
		result.PerformanceRegression = IsRegression(baseline.ScanDurationSeconds, report.ScanDurationSeconds)
		if result.PerformanceRegression {
			o.log.Warn("performance regression",
				zap.Float64("baseline_seconds", baseline.ScanDurationSeconds),
				zap.Float64("current_seconds", report.ScanDurationSeconds))
		}
	}

	if result.Passed && opts.Baseline != nil {
		if err := opts.Baseline.Save(storage.BaselineFromReport(report)); err != nil {
			o.log.Error("failed to update performance baseline", zap.Error(err))
		} else {
			result.BaselineUpdated = true
		}
	}

	if opts.History != nil && !report.Partial {
		if path, err := opts.History.SaveReport(report); err != nil {
			o.log.Warn("failed to save run history", zap.Error(err))
		} else {
			o.log.Debug("run saved", zap.String("path", path))
		}
	}

	if opts.Notifier.Len() > 0 {
		// an interrupted run still reports its outcome
		nctx := context.WithoutCancel(ctx)
		result.Notifications = opts.Notifier.Dispatch(nctx, notify.NewPayload(result))
	}

	result.Artifacts = o.writeArtifacts(opts.OutputDir, result)
	return result
}

func (o *Orchestrator) attachTrend(report *models.Report, history storage.Storage) {
	if history == nil {
		return
	}
	previous, err := history.GetLatestRun()
	if err != nil {
		o.log.Debug("no previous run for trend", zap.Error(err))
		return
	}
	report.Trend = aggregator.CalculateTrend(report, previous)
}

// Compare builds the baseline comparison record.
func Compare(baseline *models.PerformanceBaseline, report *models.Report) *models.BaselineComparison {
	cmp := &models.BaselineComparison{
		BaselineDuration: baseline.ScanDurationSeconds,
		CurrentDuration:  report.ScanDurationSeconds,
		BaselineScore:    baseline.ValidationScore,
		CurrentScore:     report.ValidationScore,
		ScoreDelta:       report.ValidationScore - baseline.ValidationScore,
		BaselineFiles:    baseline.TotalFilesScanned,
		CurrentFiles:     report.TotalFilesScanned,
		BaselineUpdated:  baseline.UpdatedTimestamp,
	}
	if baseline.ScanDurationSeconds > 0 {
		cmp.DurationRatio = report.ScanDurationSeconds / baseline.ScanDurationSeconds
	}
	return cmp
}

// IsRegression reports whether current is more than RegressionFactor times
// the baseline duration.
func IsRegression(baselineSeconds, currentSeconds float64) bool {
	return currentSeconds > baselineSeconds*models.RegressionFactor
}

// writeArtifacts writes the report in every artifact format plus the
// Markdown summary. Failures are logged and skipped.
func (o *Orchestrator) writeArtifacts(dir string, result *models.PipelineResult) []string {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		o.log.Error("cannot create output directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	ts := result.Report.ScanTimestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.Format(ArtifactTimeFormat)

	var written []string
	for _, format := range ArtifactFormats {
		path := filepath.Join(dir, fmt.Sprintf("validation_report_%s.%s", stamp, reporter.Extension(format)))
		err := writeFile(path, func(f *os.File) error {
			return reporter.Write(format, f, result.Report)
		})
		if err != nil {
			o.log.Error("failed to export report", zap.String("format", format), zap.Error(err))
			continue
		}
		written = append(written, path)
	}

	summary := filepath.Join(dir, fmt.Sprintf("pipeline_summary_%s.md", stamp))
	err := writeFile(summary, func(f *os.File) error {
		return reporter.NewMarkdownReporter(f).Generate(result)
	})
	if err != nil {
		o.log.Error("failed to write pipeline summary", zap.Error(err))
		return written
	}
	o.log.Info("artifacts written", zap.String("dir", dir), zap.Int("count", len(written)+1))
	return append(written, summary)
}

func writeFile(path string, render func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := render(f); err != nil {
		return errors.Join(err, os.Remove(path))
	}
	return nil
}
