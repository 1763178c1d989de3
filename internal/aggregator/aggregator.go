package aggregator

import (
	"math"

	"github.com/ppiankov/codespectre/internal/models"
)

// Weighted severity points per file that produce a score of zero.
const worstCasePerFile = 10

// CalculateScore computes the 0-100 validation score:
// 100 - weighted/(files*10)*100, clamped at 0. With no files the score is 100.
func CalculateScore(bySeverity map[models.Severity]int, filesScanned int) float64 {
	maxPossible := filesScanned * worstCasePerFile
	if maxPossible <= 0 {
		return 100
	}
	weighted := 0
	for sev, count := range bySeverity {
		weighted += sev.Weight() * count
	}
	score := 100 - float64(weighted)*100/float64(maxPossible)
	return math.Max(0, score)
}

// ReadinessLevel maps a score to excellent, good, warning, critical or severe.
func ReadinessLevel(score float64) string {
	switch {
	case score >= 95:
		return "excellent"
	case score >= 85:
		return "good"
	case score >= 70:
		return "warning"
	case score >= 50:
		return "critical"
	default:
		return "severe"
	}
}

// Finalize fills the count maps, score and readiness level of a report from
// its issue list. It is the only place a report is written after the scan.
func Finalize(report *models.Report) {
	report.IssuesBySeverity = CountBySeverity(report.Issues)
	report.IssuesByType = CountByType(report.Issues)
	report.ValidationScore = CalculateScore(report.IssuesBySeverity, report.TotalFilesScanned)
	report.ReadinessLevel = ReadinessLevel(report.ValidationScore)
	if report.Issues == nil {
		report.Issues = []models.Issue{}
	}
}

// CountBySeverity counts issues per level. All four levels are present.
func CountBySeverity(issues []models.Issue) map[models.Severity]int {
	counts := make(map[models.Severity]int, len(models.Severities))
	for _, sev := range models.Severities {
		counts[sev] = 0
	}
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	return counts
}

// CountByType counts issues per issue type.
func CountByType(issues []models.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.IssueType]++
	}
	return counts
}
