// Package cli implements the codespectre command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/codespectre/internal/config"
	"github.com/ppiankov/codespectre/internal/logging"
	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/patterns"
	"github.com/ppiankov/codespectre/internal/scanner"
	"github.com/ppiankov/codespectre/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	ExitOK             = models.ExitPass
	ExitPolicyFail     = models.ExitPolicyFailure
	ExitExecutionError = models.ExitExecutionError
)

var (
	cfg *config.Config

	configFile string
	verbose    bool
	debug      bool

	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "codespectre",
	Short: "CodeSpectre - hardcoded value and deprecated pattern linter",
	Long: `CodeSpectre scans Go and Python source trees for hardcoded values
(credentials, API keys, connection strings, IPs, ports, URLs, file paths)
and deprecated architecture patterns, and scores the tree from 0 to 100.

The validate command runs the full pipeline gate: scan, score, policy
gates, performance baseline, report artifacts and notifications.

Quick start:
  codespectre scan ./service
  codespectre validate --project-path ./service --fail-on-critical
  codespectre browse

Other commands:
  codespectre explain-score
  codespectre diff --fail-new
  codespectre history
  codespectre export --format junit -o report.xml
  codespectre watch ./service`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return &ExecutionError{Err: fmt.Errorf("failed to load config: %w", err)}
		}

		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}
		return nil
	},
}

// SetVersion sets the version reported by the version command and SARIF output.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and exits with the mapped exit code.
// SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	var policyErr *PolicyFailureError
	if err != nil && !errors.As(err, &policyErr) {
		logError("%v", err)
	}
	os.Exit(HandleError(err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./codespectre.yaml or ~/codespectre.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(explainScoreCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "CodeSpectre %s\n", version)
	},
}

// HandleError determines the exit code for an error returned by a command.
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var policyErr *PolicyFailureError
	if errors.As(err, &policyErr) {
		return ExitPolicyFail
	}
	// execution errors, bad flags and I/O failures alike
	return ExitExecutionError
}

// ExecutionError means the command could not do its job.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PolicyFailureError means the command ran but a gate failed.
type PolicyFailureError struct {
	Reason string
}

func (e *PolicyFailureError) Error() string {
	return "policy failure: " + e.Reason
}

// logError prints an error message
func logError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}

// newLogger builds the logger for one command. logFile overrides the
// configured log file when set.
func newLogger(logFile string) (*logging.Logger, error) {
	if logFile == "" {
		logFile = cfg.LogFile
	}
	log, err := logging.New(logging.Options{
		Verbose:    cfg.Verbose,
		Debug:      cfg.Debug,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return nil, &ExecutionError{Err: fmt.Errorf("failed to open log file: %w", err)}
	}
	if cfg.MissingFile != "" {
		log.Warn("config file not found, using defaults", zap.String("path", cfg.MissingFile))
	} else if cfg.ConfigFile != "" {
		log.Debug("config loaded", zap.String("path", cfg.ConfigFile))
	}
	return log, nil
}

// newScanner builds a directory scanner from the loaded configuration.
func newScanner(log *zap.Logger) (*scanner.Scanner, *patterns.Library, error) {
	lib, err := cfg.BuildLibrary()
	if err != nil {
		return nil, nil, &ExecutionError{Err: err}
	}
	wl, err := cfg.BuildWhitelist()
	if err != nil {
		return nil, nil, &ExecutionError{Err: err}
	}
	sc, err := scanner.New(scanner.Config{
		Include:          cfg.IncludePatterns,
		Exclude:          cfg.ExcludePatterns,
		MaxConcurrency:   cfg.Workers,
		ProgressInterval: cfg.ProgressInterval,
		Library:          lib,
		Whitelist:        wl,
		Logger:           log,
	})
	if err != nil {
		return nil, nil, &ExecutionError{Err: err}
	}
	return sc, lib, nil
}

// openHistory returns the run history store under the configured storage dir.
func openHistory() (*storage.LocalStorage, error) {
	path, err := cfg.GetStoragePath()
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	return storage.NewLocal(path), nil
}

// loadReport reads a report from path, or the latest stored run when path
// is empty.
func loadReport(path string) (*models.Report, error) {
	if path != "" {
		report, err := storage.LoadReportFile(path)
		if err != nil {
			return nil, &ExecutionError{Err: err}
		}
		return report, nil
	}
	store, err := openHistory()
	if err != nil {
		return nil, err
	}
	report, err := store.GetLatestRun()
	if err != nil {
		return nil, &ExecutionError{Err: fmt.Errorf("no stored runs found, run 'codespectre scan --save' first: %w", err)}
	}
	return report, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
