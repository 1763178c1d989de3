package notify

import (
	"fmt"
	"net/url"
	"strings"
)

const maxEndpointLength = 2048

var validReadiness = map[string]struct{}{
	"":          {},
	"excellent": {},
	"good":      {},
	"warning":   {},
	"critical":  {},
	"severe":    {},
}

// ValidateEndpoint requires an absolute http(s) URL with a host.
func ValidateEndpoint(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("endpoint is required")
	}
	if len(raw) > maxEndpointLength {
		return fmt.Errorf("endpoint exceeds %d characters", maxEndpointLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint must include a host")
	}
	return nil
}

// ValidatePayload checks payload fields before delivery.
func ValidatePayload(p Payload) error {
	switch p.Status {
	case "PASS", "FAIL", "ERROR":
	default:
		return fmt.Errorf("unsupported status %q", p.Status)
	}
	if p.ExitCode < 0 || p.ExitCode > 2 {
		return fmt.Errorf("exit_code must be 0, 1 or 2")
	}
	if p.ValidationScore < 0 || p.ValidationScore > 100 {
		return fmt.Errorf("validation_score must be between 0 and 100")
	}
	if p.TotalFilesScanned < 0 || p.TotalIssues < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if _, ok := validReadiness[p.ReadinessLevel]; !ok {
		return fmt.Errorf("unsupported readiness level %q", p.ReadinessLevel)
	}
	return nil
}

// Redact hides the path and query of an endpoint. Slack webhook paths are
// credentials.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<invalid>"
	}
	out := u.Scheme + "://" + u.Host
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		out += "/***"
	}
	return out
}
