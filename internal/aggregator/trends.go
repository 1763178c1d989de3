package aggregator

import (
	"github.com/ppiankov/codespectre/internal/models"
)

// CalculateTrend compares the current report with a previous one.
// Returns nil when there is nothing to compare with.
func CalculateTrend(current, previous *models.Report) *models.Trend {
	if previous == nil {
		return nil
	}

	trend := &models.Trend{
		PreviousIssues: len(previous.Issues),
		CurrentIssues:  len(current.Issues),
		PreviousScore:  previous.ValidationScore,
		CurrentScore:   current.ValidationScore,
		ComparedWith:   previous.ScanTimestamp,
	}

	diff := Diff(previous, current)
	trend.NewIssues = len(diff.New)
	trend.ResolvedIssues = len(diff.Resolved)

	change := trend.CurrentIssues - trend.PreviousIssues
	if trend.PreviousIssues > 0 {
		trend.ChangePercent = float64(change) / float64(trend.PreviousIssues) * 100.0
	}

	switch {
	case change < 0:
		trend.Direction = "improving"
	case change > 0:
		trend.Direction = "degrading"
	default:
		trend.Direction = "stable"
	}

	return trend
}

// DiffResult lists issues that appeared or disappeared between two reports.
type DiffResult struct {
	New       []models.Issue `json:"new"`
	Resolved  []models.Issue `json:"resolved"`
	Unchanged int            `json:"unchanged"`
}

// Diff matches issues by Issue.Key, so an issue that only moved lines is
// not reported as new. Duplicate keys are matched by count.
func Diff(before, after *models.Report) DiffResult {
	remaining := make(map[string]int)
	for _, issue := range before.Issues {
		remaining[issue.Key()]++
	}

	var result DiffResult
	for _, issue := range after.Issues {
		key := issue.Key()
		if remaining[key] > 0 {
			remaining[key]--
			result.Unchanged++
			continue
		}
		result.New = append(result.New, issue)
	}

	for _, issue := range before.Issues {
		key := issue.Key()
		if remaining[key] > 0 {
			remaining[key]--
			result.Resolved = append(result.Resolved, issue)
		}
	}
	return result
}

// Sparkline returns the issue count and score of each run, oldest first.
func Sparkline(runs []*models.Report) ([]int, []float64) {
	counts := make([]int, len(runs))
	scores := make([]float64, len(runs))
	for i, run := range runs {
		counts[i] = len(run.Issues)
		scores[i] = run.ValidationScore
	}
	return counts, scores
}
