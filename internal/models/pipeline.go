package models

import "time"

// Exit codes of a pipeline run.
const (
	ExitPass           = 0
	ExitPolicyFailure  = 1
	ExitExecutionError = 2
)

// PerformanceBaseline is the persisted last-known-good run.
type PerformanceBaseline struct {
	ScanDurationSeconds float64   `json:"scan_duration_seconds"`
	TotalFilesScanned   int       `json:"total_files_scanned"`
	ValidationScore     float64   `json:"validation_score"`
	UpdatedTimestamp    time.Time `json:"updated_timestamp"`
}

// RegressionFactor is how much slower than the baseline a scan may run.
const RegressionFactor = 1.2

// BaselineComparison compares a run against the stored baseline.
type BaselineComparison struct {
	BaselineDuration float64   `json:"baseline_duration_seconds"`
	CurrentDuration  float64   `json:"current_duration_seconds"`
	DurationRatio    float64   `json:"duration_ratio"`
	BaselineScore    float64   `json:"baseline_score"`
	CurrentScore     float64   `json:"current_score"`
	ScoreDelta       float64   `json:"score_delta"`
	BaselineFiles    int       `json:"baseline_files"`
	CurrentFiles     int       `json:"current_files"`
	BaselineUpdated  time.Time `json:"baseline_updated"`
}

// GateViolation records one tripped gate.
type GateViolation struct {
	Gate    string `json:"gate"`
	Message string `json:"message"`
}

// NotificationResult records one delivery attempt.
type NotificationResult struct {
	Kind      string `json:"kind"` // webhook or slack
	Endpoint  string `json:"endpoint"`
	Delivered bool   `json:"delivered"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PipelineResult is the decision derived from a report and a policy.
type PipelineResult struct {
	Passed                bool                 `json:"passed"`
	ExitCode              int                  `json:"exit_code"`
	FailedGate            string               `json:"failed_gate,omitempty"`
	Violations            []GateViolation      `json:"violations,omitempty"`
	PerformanceRegression bool                 `json:"performance_regression"`
	BaselineComparison    *BaselineComparison  `json:"baseline_comparison,omitempty"`
	BaselineUpdated       bool                 `json:"baseline_updated"`
	Error                 string               `json:"error,omitempty"`
	Artifacts             []string             `json:"artifacts,omitempty"`
	Notifications         []NotificationResult `json:"notifications,omitempty"`
	Report                *Report              `json:"-"`
}

// Status returns PASS, FAIL or ERROR.
func (r *PipelineResult) Status() string {
	switch {
	case r.ExitCode == ExitExecutionError:
		return "ERROR"
	case r.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}
