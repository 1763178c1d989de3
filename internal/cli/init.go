package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/codespectre/internal/config"
	"github.com/spf13/cobra"
)

var (
	initPath  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Init writes a commented sample configuration with the default include
and exclude patterns, whitelist and notification settings.

Example:
  codespectre init
  codespectre init --path ci/codespectre.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "codespectre.yaml",
		"where to write the configuration")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		return &ExecutionError{Err: fmt.Errorf("%s already exists (use --force to overwrite)", initPath)}
	}
	if err := os.WriteFile(initPath, []byte(config.GenerateSampleConfig()), 0644); err != nil {
		return &ExecutionError{Err: fmt.Errorf("failed to write config: %w", err)}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", initPath)
	return nil
}
