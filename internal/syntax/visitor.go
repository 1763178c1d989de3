package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/patterns"
)

// Visitor classifies the literals of one file. It keeps no state between
// files and is safe for concurrent use.
type Visitor struct {
	lib *patterns.Library
	wl  *patterns.Whitelist
}

// NewVisitor creates a visitor over a library and an optional whitelist.
func NewVisitor(lib *patterns.Library, wl *patterns.Whitelist) *Visitor {
	if lib == nil {
		lib = patterns.Default()
	}
	return &Visitor{lib: lib, wl: wl}
}

// Visit parses src and returns the issues found in it. relPath is the
// slash-separated path reported on each issue. Test files yield nothing and a
// parse failure yields a single scan_error issue.
func (v *Visitor) Visit(relPath string, src []byte) []models.Issue {
	if v.wl.IsTestFile(relPath) {
		return nil
	}

	lits, err := ExtractorFor(relPath).Extract(relPath, src)
	if err != nil {
		line := 1
		var se *SyntaxError
		if errors.As(err, &se) && se.Line > 0 {
			line = se.Line
		}
		return []models.Issue{{
			FilePath:       relPath,
			LineNumber:     line,
			IssueType:      models.IssueTypeScanError,
			Severity:       models.SeverityMedium,
			Description:    "failed to parse file: " + err.Error(),
			PatternMatched: "syntax",
			SuggestedFix:   v.lib.Remediation(models.IssueTypeScanError),
		}}
	}

	var issues []models.Issue
	for _, lit := range lits {
		issues = append(issues, v.classify(relPath, lit)...)
	}
	return issues
}

func (v *Visitor) classify(relPath string, lit Literal) []models.Issue {
	var issues []models.Issue
	cand := patterns.Candidate{Value: lit.Value, Binding: lit.Binding, Numeric: lit.Numeric}
	for _, m := range v.lib.Classify(cand) {
		var kept []string
		for _, value := range m.Values {
			if !v.wl.Allows(m.Info.Category, value, lit.Value) {
				kept = append(kept, value)
			}
		}
		if len(kept) == 0 {
			continue
		}
		issues = append(issues, models.Issue{
			FilePath:       relPath,
			LineNumber:     lit.Line,
			IssueType:      m.Info.IssueType,
			Severity:       m.Info.Severity,
			Description:    describe(m, kept, lit.Binding),
			PatternMatched: m.Rule.Source(),
			SuggestedFix:   m.Info.Remediation,
		})
	}
	return issues
}

func describe(m patterns.Match, values []string, binding string) string {
	shown := make([]string, len(values))
	for i, value := range values {
		if m.Rule.Sensitive {
			value = patterns.Mask(value)
		}
		shown[i] = fmt.Sprintf("%q", truncate(value, 80))
	}
	desc := fmt.Sprintf("Hardcoded %s: %s", m.Rule.Description, strings.Join(shown, ", "))
	if binding != "" {
		desc += fmt.Sprintf(" (assigned to %s)", binding)
	}
	return desc
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
