// Package storage persists the performance baseline and the history of
// scan reports.
package storage

import (
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

// Storage defines the interface for persisting reports
type Storage interface {
	// SaveReport stores a complete scan report
	SaveReport(report *models.Report) (string, error)

	// LoadReport loads a report from a specific timestamp
	LoadReport(timestamp time.Time) (*models.Report, error)

	// GetLatestRun retrieves the most recent report
	GetLatestRun() (*models.Report, error)

	// GetLastNRuns retrieves the last N reports, oldest first
	GetLastNRuns(n int) ([]*models.Report, error)

	// ListRuns returns all available run timestamps
	ListRuns() ([]time.Time, error)
}

// BaselineStore reads and conditionally replaces the performance baseline.
type BaselineStore interface {
	Load() (*models.PerformanceBaseline, error)
	Save(baseline *models.PerformanceBaseline) error
}
