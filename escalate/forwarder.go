// Package escalate pushes qualifying security events to the external
// managed detection and response (MDR) service.
//
// Forwarding is best-effort: any transport or protocol failure is returned
// to the caller as an ordinary error and must never abort the recording
// path. Exactly one network attempt is made per Forward call; a circuit
// breaker short-circuits attempts while the MDR endpoint is known to be
// down, so a flapping external service cannot slow down event recording.
package escalate

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"aegis/core"
)

// Forwarder is the interface consumed by the security event recorder.
// Implementations report failure through the error return and never panic
// past their boundary.
type Forwarder interface {
	Forward(ctx context.Context, event *core.SecurityEvent) error
}

// Submission is the MDR service's event submission shape
type Submission struct {
	Source       string          `json:"source"`
	Event        SubmissionEvent `json:"event"`
	Organization string          `json:"organization"`
	Priority     int             `json:"priority"`
}

// SubmissionEvent is the event portion of an MDR submission
type SubmissionEvent struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Severity  string       `json:"severity"`
	Timestamp time.Time    `json:"timestamp"`
	Details   core.Details `json:"details"`
}

// Config holds MDR forwarder configuration
type Config struct {
	Endpoint     string
	APIKey       string
	Source       string
	Organization string
	Timeout      time.Duration
}

// MDRForwarder forwards events to the MDR service over HTTPS
type MDRForwarder struct {
	config  Config
	client  *http.Client
	breaker *core.CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewMDRForwarder creates a forwarder with a bounded client timeout so a
// slow MDR endpoint cannot stall the calling request indefinitely.
func NewMDRForwarder(config Config, logger *zap.SugaredLogger) *MDRForwarder {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = core.HTTPClientTimeout
	}

	return &MDRForwarder{
		config: config,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		breaker: core.MustNewCircuitBreaker(core.CircuitBreakerConfig{
			MaxFailures:         3,
			Timeout:             60 * time.Second,
			MaxHalfOpenRequests: 1,
		}),
		logger: logger,
	}
}

// Priority maps event severity to the MDR submission priority:
// 1 for CRITICAL, 2 for everything else.
func Priority(severity core.Severity) int {
	if severity == core.SeverityCritical {
		return 1
	}
	return 2
}

// Forward submits the event to the MDR endpoint. At most one network call
// is made; failure of any kind is returned as an error and is routine for
// the caller.
func (f *MDRForwarder) Forward(ctx context.Context, event *core.SecurityEvent) error {
	if err := f.breaker.Allow(); err != nil {
		f.logger.Warnf("Circuit breaker open for MDR endpoint %s: %v", f.config.Endpoint, err)
		return fmt.Errorf("mdr forward skipped: %w", err)
	}

	err := f.submit(ctx, event)
	if err != nil {
		f.breaker.RecordFailure()
		return err
	}

	f.breaker.RecordSuccess()
	f.logger.Infow("Forwarded event to MDR",
		"event_id", event.ID,
		"severity", event.Severity,
		"priority", Priority(event.Severity))
	return nil
}

func (f *MDRForwarder) submit(ctx context.Context, event *core.SecurityEvent) error {
	payload := Submission{
		Source: f.config.Source,
		Event: SubmissionEvent{
			ID:        event.ID,
			Type:      string(event.Type),
			Severity:  string(event.Severity),
			Timestamp: event.Timestamp,
			Details:   event.Details,
		},
		Organization: f.config.Organization,
		Priority:     Priority(event.Severity),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal MDR submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create MDR request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.config.APIKey)
	req.Header.Set("User-Agent", "aegis/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send MDR submission: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Debugf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mdr returned non-2xx status: %d", resp.StatusCode)
	}

	return nil
}
