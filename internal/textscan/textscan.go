// Package textscan flags deprecated architecture identifiers line by line.
package textscan

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/ppiankov/codespectre/internal/models"
	"github.com/ppiankov/codespectre/internal/patterns"
)

// Scanner matches raw file text against deprecated patterns. No whitelist
// applies here.
type Scanner struct {
	patterns []patterns.DeprecatedPattern
	fix      string
}

// New creates a text scanner. fix is the suggested fix on every issue.
func New(pats []patterns.DeprecatedPattern, fix string) *Scanner {
	return &Scanner{patterns: pats, fix: fix}
}

// ForLibrary creates a text scanner from a library's deprecated patterns and
// remediation text.
func ForLibrary(lib *patterns.Library) *Scanner {
	return New(lib.DeprecatedPatterns(), lib.Remediation(models.IssueTypeDeprecatedComponent))
}

// Scan returns one issue per line and pattern that matches.
func (s *Scanner) Scan(relPath string, data []byte) []models.Issue {
	if len(s.patterns) == 0 {
		return nil
	}
	var issues []models.Issue
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		for _, p := range s.patterns {
			if !p.MatchString(text) {
				continue
			}
			issues = append(issues, models.Issue{
				FilePath:       relPath,
				LineNumber:     line,
				IssueType:      models.IssueTypeDeprecatedComponent,
				Severity:       models.SeverityHigh,
				Description:    fmt.Sprintf("Deprecated architecture pattern %q found", p.Source),
				PatternMatched: p.Source,
				SuggestedFix:   s.fix,
			})
		}
	}
	if err := sc.Err(); err != nil {
		issues = append(issues, ReadError(relPath, err))
	}
	return issues
}

// ReadError is the issue reported for a file that could not be read.
func ReadError(relPath string, err error) models.Issue {
	return models.Issue{
		FilePath:       relPath,
		LineNumber:     1,
		IssueType:      models.IssueTypeComponentScanError,
		Severity:       models.SeverityMedium,
		Description:    "failed to read file: " + err.Error(),
		PatternMatched: "read",
		SuggestedFix:   "Check file permissions and encoding",
	}
}
