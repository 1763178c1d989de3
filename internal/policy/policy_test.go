package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/codespectre/internal/aggregator"
	"github.com/ppiankov/codespectre/internal/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// one critical password in a ten file tree: score 90
func baseReport() *models.Report {
	r := &models.Report{
		TotalFilesScanned: 10,
		Issues: []models.Issue{
			{FilePath: "app/settings.py", LineNumber: 1, IssueType: "hardcoded_password", Severity: models.SeverityCritical},
		},
	}
	aggregator.Finalize(r)
	return r
}

func TestEvaluateZeroGatesPass(t *testing.T) {
	d := Gates{}.Evaluate(baseReport())
	if !d.Pass || d.FailedGate != "" || len(d.Violations) != 0 {
		t.Errorf("expected pass, got %+v", d)
	}
}

func TestScoreThresholdFail(t *testing.T) {
	d := Gates{ScoreThreshold: 95}.Evaluate(baseReport())
	if d.Pass {
		t.Fatal("score 90 must fail threshold 95")
	}
	if d.FailedGate != GateScoreThreshold {
		t.Errorf("failed gate = %s", d.FailedGate)
	}
}

func TestScoreThresholdBoundaryPasses(t *testing.T) {
	if d := (Gates{ScoreThreshold: 90}).Evaluate(baseReport()); !d.Pass {
		t.Errorf("score equal to threshold must pass: %+v", d)
	}
}

func TestCriticalGateDecidesAboveThreshold(t *testing.T) {
	d := Gates{FailOnCritical: true, ScoreThreshold: 50}.Evaluate(baseReport())
	if d.Pass || d.FailedGate != GateFailOnCritical {
		t.Errorf("expected fail_on_critical, got %+v", d)
	}
}

func TestAllTrippedGatesRecordedInOrder(t *testing.T) {
	r := baseReport()
	r.Issues = append(r.Issues,
		models.Issue{FilePath: "a.py", LineNumber: 2, IssueType: "hardcoded_ip_address", Severity: models.SeverityHigh},
		models.Issue{FilePath: "a.py", LineNumber: 3, IssueType: "hardcoded_port", Severity: models.SeverityMedium},
	)
	aggregator.Finalize(r)

	d := Gates{FailOnCritical: true, FailOnHigh: true, FailOnMedium: true, ScoreThreshold: 99,
		MaxIssues: intPtr(2), ForbidTypes: []string{"hardcoded_port", "hardcoded_url"}}.Evaluate(r)
	want := []string{GateFailOnCritical, GateFailOnHigh, GateFailOnMedium, GateScoreThreshold, GateMaxIssues, GateForbidTypes}
	if len(d.Violations) != len(want) {
		t.Fatalf("violations = %v", d.Violations)
	}
	for i, gate := range want {
		if d.Violations[i].Gate != gate {
			t.Errorf("violation %d = %s, want %s", i, d.Violations[i].Gate, gate)
		}
	}
	if d.FailedGate != GateFailOnCritical {
		t.Errorf("decisive gate = %s", d.FailedGate)
	}
}

func TestHighGateIgnoresOtherSeverities(t *testing.T) {
	if d := (Gates{FailOnHigh: true, FailOnMedium: true}).Evaluate(baseReport()); !d.Pass {
		t.Errorf("only a critical issue present, got %+v", d)
	}
}

func TestResolveOverrides(t *testing.T) {
	p := &Policy{Gates: Gates{FailOnHigh: true, ScoreThreshold: 80}}

	g := Resolve(p, Overrides{FailOnCritical: true})
	if !g.FailOnCritical || !g.FailOnHigh || g.ScoreThreshold != 80 {
		t.Errorf("merged = %+v", g)
	}
	g = Resolve(p, Overrides{ScoreThreshold: floatPtr(95)})
	if g.ScoreThreshold != 95 {
		t.Errorf("threshold flag must win, got %v", g.ScoreThreshold)
	}
	g = Resolve(nil, Overrides{FailOnMedium: true})
	if !g.FailOnMedium || g.FailOnHigh {
		t.Errorf("nil policy merge = %+v", g)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".codespectre-policy.yaml")
	content := `version: "1"
gates:
  fail_on_critical: true
  score_threshold: 85
  max_issues: 10
  forbid_types:
    - hardcoded_api_key
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Gates.FailOnCritical || p.Gates.ScoreThreshold != 85 || *p.Gates.MaxIssues != 10 || p.Gates.ForbidTypes[0] != "hardcoded_api_key" {
		t.Errorf("loaded = %+v", p.Gates)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	p, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || p != nil {
		t.Errorf("missing file: p=%v err=%v", p, err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("gates: [unclosed"), 0644)
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected parse error")
	}
	out := filepath.Join(dir, "range.yaml")
	os.WriteFile(out, []byte("gates:\n  score_threshold: 120\n"), 0644)
	if _, err := LoadFromFile(out); err == nil {
		t.Error("expected threshold range error")
	}
}

func TestFindPolicyFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, ".codespectre-policy.yml")
	if err := os.WriteFile(path, []byte("gates: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := FindPolicyFile(nested); got != path {
		t.Errorf("FindPolicyFile = %q, want %q", got, path)
	}
}
