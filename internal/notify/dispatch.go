package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ppiankov/codespectre/internal/models"
	"go.uber.org/zap"
)

// Dispatcher fans a payload out to every configured notifier.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	log       *zap.Logger
}

// NewDispatcher creates a dispatcher. Invalid endpoint URLs are skipped
// with a warning.
func NewDispatcher(log *zap.Logger, timeout time.Duration, webhooks, slackHooks []string) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{timeout: timeout, log: log}
	for _, u := range webhooks {
		if err := ValidateEndpoint(u); err != nil {
			log.Warn("skipping webhook", zap.String("endpoint", Redact(u)), zap.Error(err))
			continue
		}
		d.notifiers = append(d.notifiers, NewWebhook(u, timeout))
	}
	for _, u := range slackHooks {
		if err := ValidateEndpoint(u); err != nil {
			log.Warn("skipping slack webhook", zap.String("endpoint", Redact(u)), zap.Error(err))
			continue
		}
		d.notifiers = append(d.notifiers, NewSlack(u, timeout))
	}
	return d
}

// Add registers an extra notifier.
func (d *Dispatcher) Add(n Notifier) {
	d.notifiers = append(d.notifiers, n)
}

// Len returns the number of notifiers.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.notifiers)
}

// Dispatch delivers payload to all notifiers concurrently and waits for
// them, each bounded by the dispatcher timeout. Failures are logged and
// reported in the results, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) []models.NotificationResult {
	if d.Len() == 0 {
		return nil
	}
	if err := ValidatePayload(payload); err != nil {
		d.log.Error("notification payload rejected", zap.Error(err))
		results := make([]models.NotificationResult, len(d.notifiers))
		for i, n := range d.notifiers {
			results[i] = models.NotificationResult{Kind: n.Kind(), Endpoint: Redact(n.Endpoint()), Error: err.Error()}
		}
		return results
	}

	results := make([]models.NotificationResult, len(d.notifiers))
	var wg sync.WaitGroup
	for i, n := range d.notifiers {
		wg.Add(1)
		go func(i int, n Notifier) {
			defer wg.Done()
			results[i] = d.deliver(ctx, n, payload)
		}(i, n)
	}
	wg.Wait()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, n Notifier, payload Payload) models.NotificationResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res := models.NotificationResult{Kind: n.Kind(), Endpoint: Redact(n.Endpoint())}
	started := time.Now()
	err := n.Send(ctx, payload)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			res.Status = se.code
		}
		res.Error = err.Error()
		d.log.Warn("notification failed",
			zap.String("kind", res.Kind),
			zap.String("endpoint", res.Endpoint),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return res
	}
	res.Delivered = true
	res.Status = 200
	d.log.Info("notification delivered", zap.String("kind", res.Kind), zap.String("endpoint", res.Endpoint))
	return res
}
