// Package notify delivers pipeline results to webhook and Slack endpoints.
// Delivery is time-bounded and never affects the pipeline decision.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

// Payload is the body posted to generic webhooks.
type Payload struct {
	Event                 string                  `json:"event"`
	Status                string                  `json:"status"`
	Passed                bool                    `json:"passed"`
	ExitCode              int                     `json:"exit_code"`
	FailedGate            string                  `json:"failed_gate,omitempty"`
	Violations            []models.GateViolation  `json:"violations,omitempty"`
	RootPath              string                  `json:"root_path,omitempty"`
	ScanTimestamp         time.Time               `json:"scan_timestamp"`
	TotalFilesScanned     int                     `json:"total_files_scanned"`
	TotalIssues           int                     `json:"total_issues"`
	IssuesBySeverity      map[models.Severity]int `json:"issues_by_severity,omitempty"`
	ValidationScore       float64                 `json:"validation_score"`
	ReadinessLevel        string                  `json:"readiness_level,omitempty"`
	PerformanceRegression bool                    `json:"performance_regression"`
	Error                 string                  `json:"error,omitempty"`
}

// NewPayload summarizes a pipeline result.
func NewPayload(result *models.PipelineResult) Payload {
	p := Payload{
		Event:                 "codespectre.pipeline",
		Status:                result.Status(),
		Passed:                result.Passed,
		ExitCode:              result.ExitCode,
		FailedGate:            result.FailedGate,
		Violations:            result.Violations,
		PerformanceRegression: result.PerformanceRegression,
		Error:                 result.Error,
	}
	if r := result.Report; r != nil {
		p.RootPath = r.RootPath
		p.ScanTimestamp = r.ScanTimestamp
		p.TotalFilesScanned = r.TotalFilesScanned
		p.TotalIssues = len(r.Issues)
		p.IssuesBySeverity = r.IssuesBySeverity
		p.ValidationScore = r.ValidationScore
		p.ReadinessLevel = r.ReadinessLevel
	}
	return p
}

// Notifier sends one payload to one endpoint.
type Notifier interface {
	Kind() string
	Endpoint() string
	Send(ctx context.Context, payload Payload) error
}

// Webhook posts the payload as JSON.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a generic JSON webhook notifier.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{url: url, httpClient: newHTTPClient(timeout)}
}

func (w *Webhook) Kind() string     { return "webhook" }
func (w *Webhook) Endpoint() string { return w.url }

// Send posts the payload. Any non-2xx response is an error.
func (w *Webhook) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return post(ctx, w.httpClient, w.url, body)
}

// Slack posts a one-message summary to an incoming webhook.
type Slack struct {
	url        string
	httpClient *http.Client
}

// NewSlack creates a Slack incoming-webhook notifier.
func NewSlack(url string, timeout time.Duration) *Slack {
	return &Slack{url: url, httpClient: newHTTPClient(timeout)}
}

func (s *Slack) Kind() string     { return "slack" }
func (s *Slack) Endpoint() string { return s.url }

// Send posts {"text": ...}.
func (s *Slack) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(map[string]string{"text": SlackText(payload)})
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}
	return post(ctx, s.httpClient, s.url, body)
}

// SlackText renders the human summary used for Slack.
func SlackText(p Payload) string {
	icon := ":white_check_mark:"
	switch p.Status {
	case "FAIL":
		icon = ":x:"
	case "ERROR":
		icon = ":warning:"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *CodeSpectre %s* (exit %d)", icon, p.Status, p.ExitCode)
	if p.RootPath != "" {
		fmt.Fprintf(&b, " for `%s`", p.RootPath)
	}
	if p.Error != "" {
		fmt.Fprintf(&b, "\nError: %s", p.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "\nScore: %.1f/100 (%s)", p.ValidationScore, p.ReadinessLevel)
	fmt.Fprintf(&b, "\nIssues: %d in %d files (critical %d, high %d, medium %d, low %d)",
		p.TotalIssues, p.TotalFilesScanned,
		p.IssuesBySeverity[models.SeverityCritical], p.IssuesBySeverity[models.SeverityHigh],
		p.IssuesBySeverity[models.SeverityMedium], p.IssuesBySeverity[models.SeverityLow])
	if p.FailedGate != "" {
		fmt.Fprintf(&b, "\nFailed gate: %s", p.FailedGate)
	}
	if p.PerformanceRegression {
		b.WriteString("\nPerformance regression against baseline")
	}
	return b.String()
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("endpoint returned HTTP %d", e.code)
	}
	return fmt.Sprintf("endpoint returned HTTP %d: %s", e.code, e.msg)
}

func post(ctx context.Context, client *http.Client, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "codespectre")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, msg: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
