// Package policy evaluates the pipeline gates for a scan report.
package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/codespectre/internal/models"
	"gopkg.in/yaml.v3"
)

// Gate names, in evaluation order.
const (
	GateFailOnCritical = "fail_on_critical"
	GateFailOnHigh     = "fail_on_high"
	GateFailOnMedium   = "fail_on_medium"
	GateScoreThreshold = "score_threshold"
	GateMaxIssues      = "max_issues"
	GateForbidTypes    = "forbid_types"
)

// Policy is the on-disk form of the gate configuration.
type Policy struct {
	Version string `yaml:"version"`
	Gates   Gates  `yaml:"gates"`
}

// Gates contains all configurable pipeline gates.
type Gates struct {
	FailOnCritical bool     `yaml:"fail_on_critical" json:"fail_on_critical"`
	FailOnHigh     bool     `yaml:"fail_on_high" json:"fail_on_high"`
	FailOnMedium   bool     `yaml:"fail_on_medium" json:"fail_on_medium"`
	ScoreThreshold float64  `yaml:"score_threshold" json:"score_threshold"`
	MaxIssues      *int     `yaml:"max_issues,omitempty" json:"max_issues,omitempty"`
	ForbidTypes    []string `yaml:"forbid_types,omitempty" json:"forbid_types,omitempty"`
}

// Overrides are gate settings given on the command line. Booleans can only
// tighten the file policy. A threshold, when set, replaces it.
type Overrides struct {
	FailOnCritical bool
	FailOnHigh     bool
	FailOnMedium   bool
	ScoreThreshold *float64
}

// Decision holds the outcome of a gate evaluation. FailedGate is the first
// gate that tripped; Violations lists every tripped gate.
type Decision struct {
	Pass       bool                   `json:"pass"`
	FailedGate string                 `json:"failed_gate,omitempty"`
	Violations []models.GateViolation `json:"violations"`
}

// LoadFromFile reads a policy file. A missing file yields nil, nil.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Gates.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return &p, nil
}

// FindPolicyFile searches for a policy file in dir and its parents up to
// the filesystem root. An empty dir means the working directory.
func FindPolicyFile(dir string) string {
	names := []string{".codespectre-policy.yaml", ".codespectre-policy.yml"}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Validate checks gate values.
func (g Gates) Validate() error {
	if g.ScoreThreshold < 0 || g.ScoreThreshold > 100 {
		return fmt.Errorf("score_threshold %.1f outside 0..100", g.ScoreThreshold)
	}
	if g.MaxIssues != nil && *g.MaxIssues < 0 {
		return fmt.Errorf("max_issues must not be negative")
	}
	return nil
}

// Resolve merges the file policy (may be nil) with command-line overrides.
func Resolve(p *Policy, o Overrides) Gates {
	var g Gates
	if p != nil {
		g = p.Gates
	}
	g.FailOnCritical = g.FailOnCritical || o.FailOnCritical
	g.FailOnHigh = g.FailOnHigh || o.FailOnHigh
	g.FailOnMedium = g.FailOnMedium || o.FailOnMedium
	if o.ScoreThreshold != nil {
		g.ScoreThreshold = *o.ScoreThreshold
	}
	return g
}

// Evaluate checks a report against the gates. Every gate is evaluated so
// the result shows all reasons, but the first one decides.
func (g Gates) Evaluate(report *models.Report) Decision {
	violations := []models.GateViolation{}
	add := func(gate, format string, args ...interface{}) {
		violations = append(violations, models.GateViolation{Gate: gate, Message: fmt.Sprintf(format, args...)})
	}

	if n := report.Count(models.SeverityCritical); g.FailOnCritical && n > 0 {
		add(GateFailOnCritical, "%d critical issue(s) found", n)
	}
	if n := report.Count(models.SeverityHigh); g.FailOnHigh && n > 0 {
		add(GateFailOnHigh, "%d high issue(s) found", n)
	}
	if n := report.Count(models.SeverityMedium); g.FailOnMedium && n > 0 {
		add(GateFailOnMedium, "%d medium issue(s) found", n)
	}
	if report.ValidationScore < g.ScoreThreshold {
		add(GateScoreThreshold, "validation score %.1f below threshold %.1f", report.ValidationScore, g.ScoreThreshold)
	}
	if g.MaxIssues != nil && len(report.Issues) > *g.MaxIssues {
		add(GateMaxIssues, "total issues %d exceeds limit %d", len(report.Issues), *g.MaxIssues)
	}
	for _, t := range g.ForbidTypes {
		if n := report.IssuesByType[t]; n > 0 {
			add(GateForbidTypes, "forbidden issue type %q has %d issue(s)", t, n)
		}
	}

	d := Decision{Pass: len(violations) == 0, Violations: violations}
	if !d.Pass {
		d.FailedGate = violations[0].Gate
	}
	return d
}
