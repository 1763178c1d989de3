package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulePack is a YAML file extending the built-in library.
//
//	categories:
//	  - category: internal_hostname
//	    issue_type: hardcoded_internal_hostname
//	    severity: medium
//	    remediation: Use service discovery
//	rules:
//	  - id: corp-host
//	    category: internal_hostname
//	    value: '\b([a-z0-9-]+\.corp\.example\.com)\b'
//	    description: internal hostname
//	deprecated_patterns:
//	  - '\bOldBaseService\b'
type RulePack struct {
	Categories         []CategoryInfo `yaml:"categories"`
	Rules              []Rule         `yaml:"rules"`
	DeprecatedPatterns []string       `yaml:"deprecated_patterns"`
}

// LoadRulePack reads a rule pack from disk.
func LoadRulePack(path string) (*RulePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule pack: %w", err)
	}
	var pack RulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse rule pack: %w", err)
	}
	return &pack, nil
}

// Extend returns a new library with the pack's categories, rules and
// deprecated patterns added. Existing categories keep their severity; a pack
// that tries to change one is rejected. A pack may replace the remediation
// text of an existing category.
func (l *Library) Extend(pack *RulePack) (*Library, error) {
	if pack == nil {
		return l, nil
	}
	next := l.clone()

	for _, info := range pack.Categories {
		if info.Category == "" {
			return nil, fmt.Errorf("rule pack: category without name")
		}
		if existing, ok := next.categories[info.Category]; ok {
			if info.Severity != "" && info.Severity != existing.Severity {
				return nil, fmt.Errorf("rule pack: category %s is %s, cannot reclassify as %s",
					info.Category, existing.Severity, info.Severity)
			}
			if info.Remediation != "" {
				existing.Remediation = info.Remediation
				next.categories[info.Category] = existing
			}
			continue
		}
		if !info.Severity.Valid() {
			return nil, fmt.Errorf("rule pack: category %s: invalid severity %q", info.Category, info.Severity)
		}
		if info.IssueType == "" {
			info.IssueType = "custom_" + string(info.Category)
		}
		next.order = append(next.order, info.Category)
		next.categories[info.Category] = info
	}

	seen := make(map[string]bool, len(next.rules))
	for _, r := range next.rules {
		seen[r.ID] = true
	}
	for i := range pack.Rules {
		rule := pack.Rules[i]
		if _, ok := next.categories[rule.Category]; !ok {
			return nil, fmt.Errorf("rule pack: rule %s references unknown category %q", rule.ID, rule.Category)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("rule pack: duplicate rule id %s", rule.ID)
		}
		if err := rule.compile(); err != nil {
			return nil, fmt.Errorf("rule pack: %w", err)
		}
		seen[rule.ID] = true
		next.rules = append(next.rules, &rule)
	}

	if len(pack.DeprecatedPatterns) > 0 {
		extra, err := CompileDeprecated(pack.DeprecatedPatterns)
		if err != nil {
			return nil, fmt.Errorf("rule pack: %w", err)
		}
		next.deprecated = append(next.deprecated, extra...)
	}

	return next, nil
}
