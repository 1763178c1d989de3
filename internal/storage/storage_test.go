package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

func sampleReport(ts time.Time, score float64) *models.Report {
	return &models.Report{
		ScanTimestamp:     ts,
		RootPath:          "./svc",
		TotalFilesScanned: 10,
		Issues: []models.Issue{
			{FilePath: "a.py", LineNumber: 1, IssueType: "hardcoded_password", Severity: models.SeverityCritical},
		},
		IssuesBySeverity: map[models.Severity]int{models.SeverityCritical: 1},
		IssuesByType:     map[string]int{"hardcoded_password": 1},
		ValidationScore:  score,
	}
}

func TestSaveCreatesRunsDirectory(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "codespectre")
	s := NewLocal(baseDir)

	if _, err := s.SaveReport(sampleReport(time.Now(), 90)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "runs")); err != nil {
		t.Fatalf("expected runs directory to exist: %v", err)
	}
	if s.Dir() != baseDir {
		t.Errorf("dir = %s", s.Dir())
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	s := NewLocal(t.TempDir())
	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	path, err := s.SaveReport(sampleReport(ts, 90))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "2026-01-15T10-30-00-report.json" {
		t.Errorf("file name = %s", filepath.Base(path))
	}

	loaded, err := s.LoadReport(ts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ValidationScore != 90 || len(loaded.Issues) != 1 || loaded.IssuesBySeverity[models.SeverityCritical] != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestListAndLatest(t *testing.T) {
	s := NewLocal(t.TempDir())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []float64{70, 80, 90} {
		if _, err := s.SaveReport(sampleReport(base.Add(time.Duration(i)*time.Hour), score)); err != nil {
			t.Fatal(err)
		}
	}
	// unrelated files are ignored
	os.WriteFile(filepath.Join(s.Dir(), "runs", "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(s.Dir(), "runs", "garbage-report.json"), []byte("x"), 0644)

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 || !runs[0].Before(runs[2]) {
		t.Fatalf("runs = %v", runs)
	}

	latest, err := s.GetLatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ValidationScore != 90 {
		t.Errorf("latest score = %v", latest.ValidationScore)
	}

	last2, err := s.GetLastNRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last2) != 2 || last2[0].ValidationScore != 80 || last2[1].ValidationScore != 90 {
		t.Errorf("last 2 = %v, %v", last2[0].ValidationScore, last2[1].ValidationScore)
	}

	all, _ := s.GetLastNRuns(10)
	if len(all) != 3 {
		t.Errorf("last 10 = %d runs", len(all))
	}
}

func TestNoRuns(t *testing.T) {
	s := NewLocal(filepath.Join(t.TempDir(), "empty"))
	runs, err := s.ListRuns()
	if err != nil || len(runs) != 0 {
		t.Errorf("runs=%v err=%v", runs, err)
	}
	if _, err := s.GetLatestRun(); !errors.Is(err, ErrNoRuns) {
		t.Errorf("latest err = %v, want ErrNoRuns", err)
	}
}

func TestLoadReportFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadReportFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected not found error")
	}
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0644)
	if _, err := LoadReportFile(bad); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestBaselineMissingIsNil(t *testing.T) {
	b := NewBaselineFile(filepath.Join(t.TempDir(), "baseline.json"))
	got, err := b.Load()
	if err != nil || got != nil {
		t.Errorf("got=%v err=%v", got, err)
	}
}

func TestBaselineSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci", "baseline.json")
	b := NewBaselineFile(path)

	r := sampleReport(time.Now(), 90)
	r.ScanDurationSeconds = 2.5
	if err := b.Save(BaselineFromReport(r)); err != nil {
		t.Fatal(err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.ScanDurationSeconds != 2.5 || got.TotalFilesScanned != 10 || got.ValidationScore != 90 || got.UpdatedTimestamp.IsZero() {
		t.Errorf("baseline = %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestBaselineCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	os.WriteFile(path, []byte("not json"), 0644)
	if _, err := NewBaselineFile(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}
