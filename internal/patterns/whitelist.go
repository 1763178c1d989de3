package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// WhitelistConfig is the serializable whitelist section of the config file.
type WhitelistConfig struct {
	AllowedPorts    []int    `mapstructure:"allowed_ports" json:"allowed_ports" yaml:"allowed_ports"`
	AllowedPaths    []string `mapstructure:"allowed_paths" json:"allowed_paths" yaml:"allowed_paths"`
	AllowedStrings  []string `mapstructure:"allowed_strings" json:"allowed_strings" yaml:"allowed_strings"`
	VersionPatterns []string `mapstructure:"version_patterns" json:"version_patterns" yaml:"version_patterns"`
	TestIndicators  []string `mapstructure:"test_indicators" json:"test_indicators" yaml:"test_indicators"`
}

// DefaultWhitelistConfig returns the built-in whitelist.
func DefaultWhitelistConfig() WhitelistConfig {
	return WhitelistConfig{
		AllowedPorts:    []int{80, 443},
		AllowedPaths:    []string{"/tmp", "/dev/null", "/dev/stdout", "/dev/stderr", "/proc/"},
		AllowedStrings:  []string{"127.0.0.1", "0.0.0.0", "localhost", "255.255.255.255", "255.255.255.0"},
		VersionPatterns: []string{`^v\d+(\.\d+)+$`, `^\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.]+)?$`},
		TestIndicators:  []string{"/test_", "_test.", "/tests/", "/test/", "conftest.py", "/fixtures/"},
	}
}

// Whitelist suppresses known-acceptable matches. It never changes the rule
// table and is safe for concurrent use.
type Whitelist struct {
	ports          map[int]bool
	paths          []string
	strings        map[string]bool
	versions       []*regexp.Regexp
	testIndicators []string
}

// NewWhitelist validates and compiles a whitelist configuration.
func NewWhitelist(cfg WhitelistConfig) (*Whitelist, error) {
	w := &Whitelist{
		ports:   make(map[int]bool, len(cfg.AllowedPorts)),
		strings: make(map[string]bool, len(cfg.AllowedStrings)),
	}
	for _, port := range cfg.AllowedPorts {
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("whitelist: allowed port %d out of range 1-65535", port)
		}
		w.ports[port] = true
	}
	for _, prefix := range cfg.AllowedPaths {
		if strings.TrimSpace(prefix) == "" {
			return nil, fmt.Errorf("whitelist: empty allowed path prefix")
		}
		w.paths = append(w.paths, prefix)
	}
	for _, s := range cfg.AllowedStrings {
		w.strings[s] = true
	}
	for _, expr := range cfg.VersionPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("whitelist: version pattern %q: %w", expr, err)
		}
		w.versions = append(w.versions, re)
	}
	for _, ind := range cfg.TestIndicators {
		if strings.TrimSpace(ind) == "" {
			return nil, fmt.Errorf("whitelist: empty test indicator")
		}
		w.testIndicators = append(w.testIndicators, ind)
	}
	return w, nil
}

// Applied reports whether any suppression entry is configured.
func (w *Whitelist) Applied() bool {
	if w == nil {
		return false
	}
	return len(w.ports) > 0 || len(w.paths) > 0 || len(w.strings) > 0 || len(w.versions) > 0
}

// Allows reports whether a match in the given category is suppressed.
// literal is the full literal value the match came from.
func (w *Whitelist) Allows(cat Category, match, literal string) bool {
	if w == nil {
		return false
	}
	if w.strings[match] || w.strings[literal] {
		return true
	}
	switch cat {
	case CategoryIPAddress:
		// dotted versions such as v1.2.3.4 look like addresses
		for _, re := range w.versions {
			if re.MatchString(literal) {
				return true
			}
		}
	case CategoryPort:
		if n, err := strconv.Atoi(match); err == nil && w.ports[n] {
			return true
		}
	case CategoryFilePath:
		for _, prefix := range w.paths {
			if strings.HasPrefix(match, prefix) {
				return true
			}
		}
	}
	return false
}

// IsTestFile reports whether a slash-separated relative path looks like a
// test or fixture file. The path is matched with a leading slash so an
// indicator like "/test_" only matches at the start of a name.
func (w *Whitelist) IsTestFile(relPath string) bool {
	if w == nil {
		return false
	}
	path := "/" + strings.TrimPrefix(relPath, "/")
	for _, ind := range w.testIndicators {
		if strings.Contains(path, ind) {
			return true
		}
	}
	return false
}
