// Package patterns holds the detection rule table and the whitelist used to
// classify literal values found in source files.
package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
)

// Category groups rules that share a severity and an issue type.
type Category string

// Built-in categories.
const (
	CategoryAPIKey      Category = "api_key_pattern"
	CategoryPassword    Category = "password_pattern"
	CategoryCredentials Category = "hardcoded_credentials"
	CategoryDatabase    Category = "database_connection"
	CategoryIPAddress   Category = "ip_address"
	CategoryPort        Category = "port"
	CategoryURL         Category = "url"
	CategoryFilePath    Category = "file_path"
	CategoryDeprecated  Category = "deprecated_architecture_pattern"
)

// CategoryInfo describes how findings in a category are reported.
type CategoryInfo struct {
	Category    Category        `yaml:"category" json:"category"`
	IssueType   string          `yaml:"issue_type" json:"issue_type"`
	Severity    models.Severity `yaml:"severity" json:"severity"`
	Remediation string          `yaml:"remediation" json:"remediation"`
}

// Candidate is one literal value offered for classification.
type Candidate struct {
	Value   string // unquoted literal text
	Binding string // name the literal is assigned to, if any
	Numeric bool
}

// Rule is a single detector. A rule fires on a string literal when Value
// matches it, on a numeric literal when Numeric matches it, or on a string
// literal bound to a name matching Binding. Capture group 1 is the reported
// match when present.
type Rule struct {
	ID          string   `yaml:"id"`
	Category    Category `yaml:"category"`
	Value       string   `yaml:"value,omitempty"`
	Numeric     string   `yaml:"numeric,omitempty"`
	Binding     string   `yaml:"binding,omitempty"`
	PortRange   bool     `yaml:"port_range,omitempty"`
	Sensitive   bool     `yaml:"sensitive,omitempty"`
	Description string   `yaml:"description"`

	value   *regexp.Regexp
	numeric *regexp.Regexp
	binding *regexp.Regexp
}

func (r *Rule) compile() error {
	var err error
	if r.ID == "" {
		return fmt.Errorf("rule without id")
	}
	if r.Value == "" && r.Numeric == "" && r.Binding == "" {
		return fmt.Errorf("rule %s: needs value, numeric or binding pattern", r.ID)
	}
	if r.Value != "" {
		if r.value, err = regexp.Compile(r.Value); err != nil {
			return fmt.Errorf("rule %s: value pattern: %w", r.ID, err)
		}
	}
	if r.Numeric != "" {
		if r.numeric, err = regexp.Compile(r.Numeric); err != nil {
			return fmt.Errorf("rule %s: numeric pattern: %w", r.ID, err)
		}
	}
	if r.Binding != "" {
		if r.binding, err = regexp.Compile(r.Binding); err != nil {
			return fmt.Errorf("rule %s: binding pattern: %w", r.ID, err)
		}
	}
	return nil
}

// Source is the expression reported as pattern_matched.
func (r *Rule) Source() string {
	switch {
	case r.Value != "":
		return r.Value
	case r.Numeric != "":
		return r.Numeric
	}
	return r.Binding
}

// Match runs the rule against a candidate. It has no side effects.
func (r *Rule) Match(c Candidate) []string {
	var matches []string
	if c.Numeric {
		if r.numeric != nil {
			matches = collect(r.numeric, c.Value)
		}
	} else {
		if r.value != nil {
			matches = collect(r.value, c.Value)
		}
		if r.binding != nil && c.Binding != "" && strings.TrimSpace(c.Value) != "" && r.binding.MatchString(c.Binding) {
			matches = append(matches, c.Value)
		}
	}
	if r.PortRange {
		matches = filterPorts(matches)
	}
	return matches
}

func collect(re *regexp.Regexp, value string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(value, -1) {
		if len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}

func filterPorts(values []string) []string {
	out := values[:0]
	for _, v := range values {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 1 && n <= 65535 {
			out = append(out, v)
		}
	}
	return out
}

// Match is the result of classifying a candidate against one category.
type Match struct {
	Info   CategoryInfo
	Rule   *Rule
	Values []string
}

// DeprecatedPattern is a case-insensitive line pattern for the text scanner.
type DeprecatedPattern struct {
	Source string
	re     *regexp.Regexp
}

// MatchString reports whether the line contains the pattern.
func (p DeprecatedPattern) MatchString(line string) bool {
	return p.re.MatchString(line)
}

// CompileDeprecated compiles expressions as case-insensitive patterns.
func CompileDeprecated(exprs []string) ([]DeprecatedPattern, error) {
	out := make([]DeprecatedPattern, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("deprecated pattern %q: %w", expr, err)
		}
		out = append(out, DeprecatedPattern{Source: expr, re: re})
	}
	return out, nil
}

// Library is an immutable rule table. It is safe for concurrent use.
type Library struct {
	order      []Category
	categories map[Category]CategoryInfo
	rules      []*Rule
	deprecated []DeprecatedPattern
}

// Categories returns category descriptors in table order.
func (l *Library) Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(l.order))
	for _, c := range l.order {
		out = append(out, l.categories[c])
	}
	return out
}

// Category looks up one category descriptor.
func (l *Library) Category(c Category) (CategoryInfo, bool) {
	info, ok := l.categories[c]
	return info, ok
}

// Rules returns the rule table.
func (l *Library) Rules() []*Rule {
	return append([]*Rule(nil), l.rules...)
}

// DeprecatedPatterns returns the text scanner patterns.
func (l *Library) DeprecatedPatterns() []DeprecatedPattern {
	return append([]DeprecatedPattern(nil), l.deprecated...)
}

// Remediation returns the fix text for an issue type.
func (l *Library) Remediation(issueType string) string {
	for _, c := range l.order {
		if l.categories[c].IssueType == issueType {
			return l.categories[c].Remediation
		}
	}
	switch issueType {
	case models.IssueTypeDeprecatedComponent:
		return l.categories[CategoryDeprecated].Remediation
	case models.IssueTypeScanError, models.IssueTypeComponentScanError:
		return "Fix the file so it can be read and parsed"
	}
	return ""
}

// Classify runs every rule against the candidate and groups the results by
// category. The first matching rule of a category is kept as its representative.
func (l *Library) Classify(c Candidate) []Match {
	var (
		out   []Match
		index = make(map[Category]int)
	)
	for _, rule := range l.rules {
		values := rule.Match(c)
		if len(values) == 0 {
			continue
		}
		if i, ok := index[rule.Category]; ok {
			out[i].Values = appendUnique(out[i].Values, values...)
			continue
		}
		index[rule.Category] = len(out)
		out = append(out, Match{Info: l.categories[rule.Category], Rule: rule, Values: appendUnique(nil, values...)})
	}
	// table order, not rule order
	ordered := make([]Match, 0, len(out))
	for _, cat := range l.order {
		if i, ok := index[cat]; ok {
			ordered = append(ordered, out[i])
		}
	}
	return ordered
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}

// WithDeprecatedPatterns returns a copy of the library using exprs for the
// text scanner. An empty list keeps the current patterns.
func (l *Library) WithDeprecatedPatterns(exprs []string) (*Library, error) {
	if len(exprs) == 0 {
		return l, nil
	}
	compiled, err := CompileDeprecated(exprs)
	if err != nil {
		return nil, err
	}
	next := l.clone()
	next.deprecated = compiled
	return next, nil
}

func (l *Library) clone() *Library {
	next := &Library{
		order:      append([]Category(nil), l.order...),
		categories: make(map[Category]CategoryInfo, len(l.categories)),
		rules:      append([]*Rule(nil), l.rules...),
		deprecated: append([]DeprecatedPattern(nil), l.deprecated...),
	}
	for k, v := range l.categories {
		next.categories[k] = v
	}
	return next
}

// Mask hides most of a sensitive value for display.
func Mask(value string) string {
	r := []rune(value)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	keep := 2
	if len(r) > 12 {
		keep = 4
	}
	return string(r[:keep]) + strings.Repeat("*", len(r)-keep)
}
