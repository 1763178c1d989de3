package aggregator

import (
	"fmt"
	"sort"

	"github.com/ppiankov/codespectre/internal/models"
)

// RemediationSource supplies fix text per issue type.
type RemediationSource interface {
	Remediation(issueType string) string
}

type issueGroup struct {
	issueType string
	severity  models.Severity
	count     int
	files     map[string]bool
}

// GenerateRecommendations groups issues by type and severity and orders the
// groups critical first, then by size.
func GenerateRecommendations(report *models.Report, src RemediationSource) []models.Recommendation {
	groups := make(map[string]*issueGroup)
	for _, issue := range report.Issues {
		key := issue.IssueType + ":" + string(issue.Severity)
		g, ok := groups[key]
		if !ok {
			g = &issueGroup{issueType: issue.IssueType, severity: issue.Severity, files: make(map[string]bool)}
			groups[key] = g
		}
		g.count++
		g.files[issue.FilePath] = true
	}

	recs := make([]models.Recommendation, 0, len(groups))
	for _, g := range groups {
		action := ""
		if src != nil {
			action = src.Remediation(g.issueType)
		}
		if action == "" {
			action = fmt.Sprintf("Review %s findings", g.issueType)
		}
		recs = append(recs, models.Recommendation{
			Severity:  g.severity,
			IssueType: g.issueType,
			Action:    action,
			Impact:    impactFor(g),
			Count:     g.count,
			Files:     len(g.files),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Severity.Rank() != recs[j].Severity.Rank() {
			return recs[i].Severity.Rank() < recs[j].Severity.Rank()
		}
		if recs[i].Count != recs[j].Count {
			return recs[i].Count > recs[j].Count
		}
		return recs[i].IssueType < recs[j].IssueType
	})
	return recs
}

func impactFor(g *issueGroup) string {
	points := g.severity.Weight() * g.count
	return fmt.Sprintf("%d finding(s) in %d file(s), %d weighted point(s)", g.count, len(g.files), points)
}
