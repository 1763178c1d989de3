package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

const (
	runsDirName  = "runs"
	runStampFmt  = "2006-01-02T15-04-05"
	reportSuffix = "-report.json"
)

// ErrNoRuns is returned when the history holds no readable run.
var ErrNoRuns = errors.New("no stored runs")

// LocalStorage keeps one JSON file per scan under <dir>/runs.
type LocalStorage struct {
	dir string
}

// NewLocal returns a history rooted at dir. Nothing is created until the
// first save.
func NewLocal(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

// Dir is the history root.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) runsDir() string {
	return filepath.Join(s.dir, runsDirName)
}

// SaveReport stores a report under runs/ and returns its path. A run with
// the same second-resolution timestamp is replaced.
func (s *LocalStorage) SaveReport(report *models.Report) (string, error) {
	if err := os.MkdirAll(s.runsDir(), 0755); err != nil {
		return "", fmt.Errorf("create runs directory: %w", err)
	}
	path := s.runPath(report.ScanTimestamp)
	if err := writeJSONAtomic(path, report); err != nil {
		return "", fmt.Errorf("store run: %w", err)
	}
	return path, nil
}

func (s *LocalStorage) LoadReport(timestamp time.Time) (*models.Report, error) {
	return LoadReportFile(s.runPath(timestamp))
}

// GetLatestRun returns the newest stored run.
func (s *LocalStorage) GetLatestRun() (*models.Report, error) {
	stamps, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRuns, s.dir)
	}
	return s.LoadReport(stamps[len(stamps)-1])
}

// GetLastNRuns returns up to n runs, oldest first. n <= 0 means all.
// Unreadable run files are skipped.
func (s *LocalStorage) GetLastNRuns(n int) ([]*models.Report, error) {
	stamps, err := s.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRuns, s.dir)
	}
	if n > 0 && n < len(stamps) {
		stamps = stamps[len(stamps)-n:]
	}

	runs := make([]*models.Report, 0, len(stamps))
	for _, ts := range stamps {
		report, err := s.LoadReport(ts)
		if err != nil {
			continue
		}
		runs = append(runs, report)
	}
	return runs, nil
}

// ListRuns returns stored run timestamps in chronological order. Files that
// do not follow the run naming scheme are ignored.
func (s *LocalStorage) ListRuns() ([]time.Time, error) {
	entries, err := os.ReadDir(s.runsDir())
	if errors.Is(err, os.ErrNotExist) {
		return []time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read runs directory: %w", err)
	}

	stamps := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, reportSuffix) {
			continue
		}
		ts, err := time.Parse(runStampFmt, strings.TrimSuffix(name, reportSuffix))
		if err != nil {
			continue
		}
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return stamps, nil
}

// LoadReportFile reads a JSON report written by the json exporter or by
// SaveReport.
func LoadReportFile(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("report not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	report := &models.Report{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return report, nil
}

func (s *LocalStorage) runPath(t time.Time) string {
	return filepath.Join(s.runsDir(), t.UTC().Format(runStampFmt)+reportSuffix)
}
