package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/notify"
	"github.com/ppiankov/codespectre/internal/pipeline"
	"github.com/ppiankov/codespectre/internal/policy"
	"github.com/ppiankov/codespectre/internal/reporter"
	"github.com/ppiankov/codespectre/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// baselineFileName is the default baseline location inside the output dir.
const baselineFileName = "performance_baseline.json"

var (
	validateProjectPath    string
	validateOutputDir      string
	validateFailOnCritical bool
	validateFailOnHigh     bool
	validateFailOnMedium   bool
	validateScoreThreshold float64
	validateBaseline       string
	validateWebhooks       []string
	validateSlackHooks     []string
	validatePolicyFile     string
	validateExclude        []string
	validateNoHistory      bool
	validateFormat         string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the pipeline gate: scan, evaluate gates, write artifacts",
	Long: `Validate scans the project, evaluates the quality gates and writes
the report artifacts (JSON, HTML, CSV, JUnit XML and a Markdown summary)
to the output directory.

Gates come from .codespectre-policy.yaml (searched upward from the
working directory, or --policy) and the flags below. Flags can only
tighten the boolean gates; --score-threshold replaces the policy value.

The performance baseline is compared on every run and rewritten only
when the run passes. A run more than 20% slower than the baseline is
flagged as a regression but does not fail the gate.

Exit codes:
  0  All gates passed
  1  A gate failed
  2  The scan could not run or was interrupted

Example:
  codespectre validate --project-path . --fail-on-critical
  codespectre validate --project-path ./service --score-threshold 85 \
    --slack-webhook https://hooks.slack.com/services/T000/B000/XXXX`,
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateProjectPath, "project-path", ".",
		"project directory to validate")
	f.StringVar(&validateOutputDir, "output-dir", "validation_results",
		"directory for report artifacts and the log file")
	f.BoolVar(&validateFailOnCritical, "fail-on-critical", false,
		"fail when any critical issue is found")
	f.BoolVar(&validateFailOnHigh, "fail-on-high", false,
		"fail when any high issue is found")
	f.BoolVar(&validateFailOnMedium, "fail-on-medium", false,
		"fail when any medium issue is found")
	f.Float64Var(&validateScoreThreshold, "score-threshold", 0,
		"minimum validation score (0-100)")
	f.StringVar(&validateBaseline, "performance-baseline", "",
		"performance baseline file (default: <output-dir>/"+baselineFileName+")")
	f.StringArrayVar(&validateWebhooks, "webhook-url", nil,
		"webhook to notify with the JSON result (repeatable)")
	f.StringArrayVar(&validateSlackHooks, "slack-webhook", nil,
		"Slack incoming webhook to notify (repeatable)")
	f.StringVar(&validatePolicyFile, "policy", "",
		"policy file (default: .codespectre-policy.yaml searched upward)")
	f.StringSliceVar(&validateExclude, "exclude", nil,
		"additional exclude globs")
	f.BoolVar(&validateNoHistory, "no-history", false,
		"do not store the report in the run history")
	f.StringVar(&validateFormat, "format", "text",
		"stdout format: text or json")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateFormat != "text" && validateFormat != "json" {
		return &ExecutionError{Err: fmt.Errorf("unsupported format: %s (use text or json)", validateFormat)}
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(validateOutputDir, "codespectre.log")
	}
	log, err := newLogger(logFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	gates, err := resolveGates(cmd)
	if err != nil {
		return err
	}
	log.Info("gates resolved",
		zap.Bool("fail_on_critical", gates.FailOnCritical),
		zap.Bool("fail_on_high", gates.FailOnHigh),
		zap.Bool("fail_on_medium", gates.FailOnMedium),
		zap.Float64("score_threshold", gates.ScoreThreshold))

	sc, lib, err := newScanner(log.Logger)
	if err != nil {
		return err
	}

	baselinePath := validateBaseline
	if baselinePath == "" {
		baselinePath = filepath.Join(validateOutputDir, baselineFileName)
	}

	opts := pipeline.Options{
		ProjectPath:  validateProjectPath,
		ExcludeGlobs: validateExclude,
		OutputDir:    validateOutputDir,
		Gates:        gates,
		Baseline:     storage.NewBaselineFile(baselinePath),
		Notifier: notify.NewDispatcher(log.Logger, cfg.NotifyTimeout,
			append(append([]string{}, cfg.WebhookURLs...), validateWebhooks...),
			append(append([]string{}, cfg.SlackWebhooks...), validateSlackHooks...)),
		Remediation: lib,
	}
	if !validateNoHistory {
		store, err := openHistory()
		if err != nil {
			return err
		}
		opts.History = store
	}

	result := pipeline.New(sc, log.Logger).Run(commandContext(cmd), opts)

	if err := printPipelineResult(cmd, result); err != nil {
		return err
	}
	return pipelineError(result)
}

// resolveGates merges the policy file, the configured threshold and flags.
func resolveGates(cmd *cobra.Command) (policy.Gates, error) {
	path := validatePolicyFile
	if path == "" {
		path = policy.FindPolicyFile("")
	}

	var p *policy.Policy
	if path != "" {
		var err error
		if p, err = policy.LoadFromFile(path); err != nil {
			return policy.Gates{}, &ExecutionError{Err: err}
		}
		if p == nil && validatePolicyFile != "" {
			return policy.Gates{}, &ExecutionError{Err: fmt.Errorf("policy file not found: %s", path)}
		}
	}

	overrides := policy.Overrides{
		FailOnCritical: validateFailOnCritical,
		FailOnHigh:     validateFailOnHigh,
		FailOnMedium:   validateFailOnMedium,
	}
	if cmd.Flags().Changed("score-threshold") {
		overrides.ScoreThreshold = &validateScoreThreshold
	} else if p == nil && cfg.ScoreThreshold > 0 {
		overrides.ScoreThreshold = &cfg.ScoreThreshold
	}

	gates := policy.Resolve(p, overrides)
	if err := gates.Validate(); err != nil {
		return policy.Gates{}, &ExecutionError{Err: err}
	}
	return gates, nil
}

func printPipelineResult(cmd *cobra.Command, result *models.PipelineResult) error {
	out := cmd.OutOrStdout()
	var err error
	switch validateFormat {
	case "json":
		err = reporter.NewJSONReporter(out, true).GeneratePipelineResult(result)
	default:
		err = reporter.NewTextReporter(out, isTerminal(out)).GeneratePipelineResult(result)
	}
	if err != nil {
		return &ExecutionError{Err: err}
	}
	return nil
}

// pipelineError converts the pipeline exit code to a command error.
func pipelineError(result *models.PipelineResult) error {
	switch result.ExitCode {
	case models.ExitPass:
		return nil
	case models.ExitPolicyFailure:
		return &PolicyFailureError{Reason: result.FailedGate}
	default:
		msg := result.Error
		if msg == "" {
			msg = "pipeline execution failed"
		}
		return &ExecutionError{Err: errors.New(msg)}
	}
}
