// Package config loads codespectre settings from defaults, a config file
// and CODESPECTRE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/codespectre/internal/notify"
	"github.com/ppiankov/codespectre/internal/patterns"
	"github.com/spf13/viper"
)

// Config holds all configuration for codespectre
type Config struct {
	// Files to scan and files to skip
	IncludePatterns []string `mapstructure:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`

	Whitelist patterns.WhitelistConfig `mapstructure:"whitelist"`

	// Replaces the built-in deprecated architecture patterns when set
	DeprecatedPatterns []string `mapstructure:"deprecated_patterns"`

	// Optional YAML rule pack extending the pattern library
	RulesFile string `mapstructure:"rules_file"`

	Workers          int `mapstructure:"workers"`
	ProgressInterval int `mapstructure:"progress_interval"`

	// Run history for diff, history and trend
	StorageDir string `mapstructure:"storage_dir"`

	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	ScoreThreshold float64 `mapstructure:"score_threshold"`

	WebhookURLs   []string      `mapstructure:"webhook_urls"`
	SlackWebhooks []string      `mapstructure:"slack_webhooks"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`

	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`

	// ConfigFile is the file that was read, empty when none was.
	ConfigFile string `mapstructure:"-"`

	// MissingFile is set when an explicitly named file did not exist and
	// defaults were used instead.
	MissingFile string `mapstructure:"-"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		IncludePatterns: []string{"*.py", "*.go"},
		ExcludePatterns: []string{
			"**/.git/**", "**/__pycache__/**", "**/node_modules/**", "**/venv/**", "**/.venv/**",
			"**/build/**", "**/dist/**", "**/vendor/**", "*.pyc",
		},
		Whitelist:        patterns.DefaultWhitelistConfig(),
		Workers:          runtime.NumCPU(),
		ProgressInterval: 50,
		StorageDir:       ".codespectre",
		LogMaxSizeMB:     10,
		LogMaxBackups:    3,
		ScoreThreshold:   0,
		NotifyTimeout:    notify.DefaultTimeout,
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (./codespectre.{json,yaml}, ~/.codespectre.{json,yaml} or the given path)
// 3. Environment variables (CODESPECTRE_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path. If path is
// empty, it searches standard locations. A named file that does not exist
// falls back to defaults and is recorded in MissingFile.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("include_patterns", defaults.IncludePatterns)
	v.SetDefault("exclude_patterns", defaults.ExcludePatterns)
	v.SetDefault("whitelist.allowed_ports", defaults.Whitelist.AllowedPorts)
	v.SetDefault("whitelist.allowed_paths", defaults.Whitelist.AllowedPaths)
	v.SetDefault("whitelist.allowed_strings", defaults.Whitelist.AllowedStrings)
	v.SetDefault("whitelist.version_patterns", defaults.Whitelist.VersionPatterns)
	v.SetDefault("whitelist.test_indicators", defaults.Whitelist.TestIndicators)
	v.SetDefault("deprecated_patterns", []string{})
	v.SetDefault("rules_file", "")
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("progress_interval", defaults.ProgressInterval)
	v.SetDefault("storage_dir", defaults.StorageDir)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", defaults.LogMaxSizeMB)
	v.SetDefault("log_max_backups", defaults.LogMaxBackups)
	v.SetDefault("score_threshold", defaults.ScoreThreshold)
	v.SetDefault("webhook_urls", []string{})
	v.SetDefault("slack_webhooks", []string{})
	v.SetDefault("notify_timeout", defaults.NotifyTimeout)
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)

	var missing string
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			missing = configPath
		} else {
			// type follows the extension: .json, .yaml, .yml, .toml
			v.SetConfigFile(configPath)
		}
	}
	if configPath == "" {
		v.SetConfigName("codespectre")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "codespectre"))
		}
	}

	v.SetEnvPrefix("CODESPECTRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if missing == "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.MissingFile = missing

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid. Whitelist entries are
// compiled here so a malformed entry fails before any scan starts.
func (c *Config) Validate() error {
	if len(c.IncludePatterns) == 0 {
		return fmt.Errorf("include_patterns cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval cannot be negative")
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 100 {
		return fmt.Errorf("score_threshold must be between 0 and 100")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir cannot be empty")
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 {
		return fmt.Errorf("log rotation settings cannot be negative")
	}
	if c.NotifyTimeout < 0 {
		return fmt.Errorf("notify_timeout cannot be negative")
	}
	if _, err := patterns.NewWhitelist(c.Whitelist); err != nil {
		return err
	}
	if _, err := patterns.CompileDeprecated(c.DeprecatedPatterns); err != nil {
		return fmt.Errorf("deprecated_patterns: %w", err)
	}
	for _, u := range append(append([]string(nil), c.WebhookURLs...), c.SlackWebhooks...) {
		if err := notify.ValidateEndpoint(u); err != nil {
			return fmt.Errorf("notification endpoint %s: %w", notify.Redact(u), err)
		}
	}
	return nil
}

// BuildWhitelist compiles the whitelist section.
func (c *Config) BuildWhitelist() (*patterns.Whitelist, error) {
	return patterns.NewWhitelist(c.Whitelist)
}

// BuildLibrary returns the built-in pattern library extended by the rule
// pack and deprecated pattern overrides.
func (c *Config) BuildLibrary() (*patterns.Library, error) {
	lib := patterns.Default()
	if c.RulesFile != "" {
		pack, err := patterns.LoadRulePack(c.RulesFile)
		if err != nil {
			return nil, err
		}
		if lib, err = lib.Extend(pack); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", c.RulesFile, err)
		}
	}
	return lib.WithDeprecatedPatterns(c.DeprecatedPatterns)
}

// GetStoragePath returns the absolute path to the storage directory
func (c *Config) GetStoragePath() (string, error) {
	if strings.HasPrefix(c.StorageDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, c.StorageDir[2:]), nil
	}

	absPath, err := filepath.Abs(c.StorageDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# codespectre configuration
# Save this file as ./codespectre.yaml or ~/codespectre.yaml.
# JSON with the same keys is accepted as codespectre.json.

include_patterns: ["*.py", "*.go"]
exclude_patterns:
  - "**/.git/**"
  - "**/__pycache__/**"
  - "**/node_modules/**"
  - "**/venv/**"
  - "**/build/**"
  - "*.pyc"

whitelist:
  allowed_ports: [80, 443]
  allowed_paths: ["/tmp", "/dev/null"]
  allowed_strings: ["127.0.0.1", "0.0.0.0", "localhost"]
  version_patterns: ['^v\d+(\.\d+)+$']
  test_indicators: ["/test_", "_test.", "/tests/", "/fixtures/"]

# Extra rules and categories (YAML rule pack)
# rules_file: codespectre-rules.yaml

# Worker goroutines (default: number of CPUs)
# workers: 8

# Directory for run history used by diff, history and trend
storage_dir: .codespectre

# Minimum validation score for validate
score_threshold: 0

# Notifications sent by validate
# webhook_urls: ["https://ci.example.com/hooks/codespectre"]
# slack_webhooks: ["https://hooks.slack.com/services/..."]
notify_timeout: 10s
`
}
