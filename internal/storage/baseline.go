package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

// BaselineFile stores the last-known-good performance baseline as JSON.
type BaselineFile struct {
	path string
}

// NewBaselineFile returns a baseline store backed by path.
func NewBaselineFile(path string) *BaselineFile {
	return &BaselineFile{path: path}
}

// Path returns the baseline file location.
func (b *BaselineFile) Path() string {
	return b.path
}

// Load reads the baseline. A missing file means no baseline: nil, nil.
func (b *BaselineFile) Load() (*models.PerformanceBaseline, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}

	var baseline models.PerformanceBaseline
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("failed to parse baseline %s: %w", b.path, err)
	}
	if baseline.ScanDurationSeconds < 0 {
		return nil, fmt.Errorf("baseline %s: negative scan duration", b.path)
	}
	return &baseline, nil
}

// Save replaces the baseline atomically.
func (b *BaselineFile) Save(baseline *models.PerformanceBaseline) error {
	if baseline.UpdatedTimestamp.IsZero() {
		baseline.UpdatedTimestamp = time.Now().UTC()
	}
	if err := writeJSONAtomic(b.path, baseline); err != nil {
		return fmt.Errorf("failed to write baseline: %w", err)
	}
	return nil
}

// BaselineFromReport captures the metrics of a finished scan.
func BaselineFromReport(report *models.Report) *models.PerformanceBaseline {
	return &models.PerformanceBaseline{
		ScanDurationSeconds: report.ScanDurationSeconds,
		TotalFilesScanned:   report.TotalFilesScanned,
		ValidationScore:     report.ValidationScore,
		UpdatedTimestamp:    time.Now().UTC(),
	}
}
