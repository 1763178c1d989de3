package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

func issue(file string, line int, typ string, sev models.Severity) models.Issue {
	return models.Issue{FilePath: file, LineNumber: line, IssueType: typ, Severity: sev, Description: typ + " in " + file}
}

func counts(c, h, m, l int) map[models.Severity]int {
	return map[models.Severity]int{
		models.SeverityCritical: c,
		models.SeverityHigh:     h,
		models.SeverityMedium:   m,
		models.SeverityLow:      l,
	}
}

func TestCalculateScoreExample(t *testing.T) {
	if got := CalculateScore(counts(1, 0, 0, 0), 10); got != 90.0 {
		t.Errorf("score = %v, want 90", got)
	}
}

func TestCalculateScoreNoFiles(t *testing.T) {
	if got := CalculateScore(counts(3, 0, 0, 0), 0); got != 100 {
		t.Errorf("score = %v, want 100", got)
	}
}

func TestCalculateScoreClamped(t *testing.T) {
	if got := CalculateScore(counts(5, 5, 0, 0), 2); got != 0 {
		t.Errorf("score = %v, want 0", got)
	}
}

func TestCalculateScoreMonotonic(t *testing.T) {
	const files = 40
	maxPossible := float64(files * 10)
	prev := CalculateScore(counts(0, 2, 3, 4), files)
	for c := 1; c <= 10; c++ {
		got := CalculateScore(counts(c, 2, 3, 4), files)
		if got > prev {
			t.Fatalf("score increased at critical=%d: %v > %v", c, got, prev)
		}
		if want := math.Max(0, prev-10/maxPossible*100); math.Abs(got-want) > 1e-9 {
			t.Fatalf("critical=%d: score %v, want %v", c, got, want)
		}
		prev = got
	}
	for _, m := range []map[models.Severity]int{counts(0, 1, 0, 0), counts(0, 0, 1, 0), counts(0, 0, 0, 1)} {
		if CalculateScore(m, files) >= 100 {
			t.Errorf("any issue must lower the score: %v", m)
		}
	}
}

func TestReadinessLevel(t *testing.T) {
	tests := map[float64]string{100: "excellent", 95: "excellent", 90: "good", 75: "warning", 50: "critical", 10: "severe"}
	for score, want := range tests {
		if got := ReadinessLevel(score); got != want {
			t.Errorf("ReadinessLevel(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestFinalize(t *testing.T) {
	r := &models.Report{
		TotalFilesScanned: 10,
		Issues: []models.Issue{
			issue("a.py", 1, "hardcoded_password", models.SeverityCritical),
			issue("b.py", 2, "hardcoded_port", models.SeverityMedium),
			issue("b.py", 3, "hardcoded_port", models.SeverityMedium),
		},
	}
	Finalize(r)
	if r.IssuesBySeverity[models.SeverityCritical] != 1 || r.IssuesBySeverity[models.SeverityMedium] != 2 {
		t.Errorf("by severity = %v", r.IssuesBySeverity)
	}
	if _, ok := r.IssuesBySeverity[models.SeverityLow]; !ok {
		t.Error("all severity keys must be present")
	}
	if r.IssuesByType["hardcoded_port"] != 2 {
		t.Errorf("by type = %v", r.IssuesByType)
	}
	if r.ValidationScore != 86 || r.ReadinessLevel != "good" {
		t.Errorf("score = %v (%s)", r.ValidationScore, r.ReadinessLevel)
	}
}

func TestFinalizeOrderInvariant(t *testing.T) {
	a := &models.Report{TotalFilesScanned: 5, Issues: []models.Issue{
		issue("a.py", 1, "x", models.SeverityHigh), issue("b.py", 1, "y", models.SeverityLow),
	}}
	b := &models.Report{TotalFilesScanned: 5, Issues: []models.Issue{a.Issues[1], a.Issues[0]}}
	Finalize(a)
	Finalize(b)
	if a.ValidationScore != b.ValidationScore {
		t.Errorf("score depends on order: %v vs %v", a.ValidationScore, b.ValidationScore)
	}
}

func TestCalculateTrendAndDiff(t *testing.T) {
	prev := &models.Report{ScanTimestamp: time.Now().Add(-time.Hour), ValidationScore: 80, Issues: []models.Issue{
		issue("a.py", 1, "hardcoded_url", models.SeverityMedium),
		issue("b.py", 4, "hardcoded_ip_address", models.SeverityHigh),
	}}
	moved := issue("a.py", 7, "hardcoded_url", models.SeverityMedium)
	cur := &models.Report{ValidationScore: 70, Issues: []models.Issue{
		moved,
		issue("c.py", 2, "hardcoded_password", models.SeverityCritical),
		issue("c.py", 9, "hardcoded_password", models.SeverityCritical),
	}}

	trend := CalculateTrend(cur, prev)
	if trend.Direction != "degrading" || trend.NewIssues != 2 || trend.ResolvedIssues != 1 {
		t.Errorf("trend = %+v", trend)
	}
	if trend.ChangePercent != 50 {
		t.Errorf("change percent = %v", trend.ChangePercent)
	}
	if CalculateTrend(cur, nil) != nil {
		t.Error("trend without previous run must be nil")
	}
}

type fixedRemediation map[string]string

func (f fixedRemediation) Remediation(t string) string { return f[t] }

func TestGenerateRecommendations(t *testing.T) {
	r := &models.Report{Issues: []models.Issue{
		issue("a.py", 1, "hardcoded_port", models.SeverityMedium),
		issue("b.py", 1, "hardcoded_port", models.SeverityMedium),
		issue("a.py", 2, "hardcoded_password", models.SeverityCritical),
		issue("a.py", 3, "hardcoded_file_path", models.SeverityLow),
	}}
	recs := GenerateRecommendations(r, fixedRemediation{"hardcoded_password": "use a vault"})
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].IssueType != "hardcoded_password" || recs[0].Action != "use a vault" {
		t.Errorf("first = %+v", recs[0])
	}
	if recs[1].IssueType != "hardcoded_port" || recs[1].Count != 2 || recs[1].Files != 2 {
		t.Errorf("second = %+v", recs[1])
	}
	if recs[2].Action == "" {
		t.Error("fallback action missing")
	}
}
