// Package soc records, classifies, escalates, and aggregates security
// events for the security operations center.
package soc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aegis/core"
	"aegis/escalate"
	"aegis/metrics"
	"aegis/storage"
)

// RawEvent is the caller-supplied portion of a security event. The recorder
// assigns ID, status, timestamp (when zero), and the forwarded flag; it
// derives severity when the caller leaves it empty.
type RawEvent struct {
	Type      core.EventType
	Severity  core.Severity // optional; derived from Type when empty
	Source    string
	Identity  string
	IPAddress string
	UserAgent string
	Details   core.Details
}

// defaultSeverity maps event types to their severity when the caller does
// not pre-classify. Custom types default to MEDIUM.
var defaultSeverity = map[core.EventType]core.Severity{
	core.EventTypeAuthFailure:   core.SeverityMedium,
	core.EventTypeRBACViolation: core.SeverityHigh,
	core.EventTypeSessionHijack: core.SeverityCritical,
}

// Recorder validates, enriches, classifies, and durably records security
// events, escalating qualifying ones to the MDR forwarder.
type Recorder struct {
	store     storage.EventStorageInterface
	forwarder escalate.Forwarder
	logger    *zap.SugaredLogger
}

// NewRecorder creates a recorder. The forwarder may be nil, in which case
// qualifying events are recorded but never escalated.
func NewRecorder(store storage.EventStorageInterface, forwarder escalate.Forwarder, logger *zap.SugaredLogger) *Recorder {
	return &Recorder{
		store:     store,
		forwarder: forwarder,
		logger:    logger,
	}
}

// Record enriches the raw event, appends it to the durable log, and
// synchronously escalates HIGH and CRITICAL events.
//
// The forwarder call happens after the append with no store lock held, so
// a slow MDR endpoint never blocks unrelated appends; the forwarded flag
// is persisted afterwards and is eventually consistent for readers.
// Forwarder failure is a non-fatal warning: the event stays recorded.
func (r *Recorder) Record(ctx context.Context, raw RawEvent) (*core.SecurityEvent, error) {
	if raw.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}

	severity := raw.Severity
	if severity == "" {
		severity = defaultSeverity[raw.Type]
		if severity == "" {
			severity = core.SeverityMedium
		}
	}
	if !severity.IsValid() {
		return nil, fmt.Errorf("invalid severity: %s", raw.Severity)
	}

	event := &core.SecurityEvent{
		ID:        core.NewEventID(),
		Type:      raw.Type,
		Severity:  severity,
		Status:    core.EventStatusNew,
		Timestamp: time.Now().UTC(),
		Source:    raw.Source,
		Identity:  raw.Identity,
		IPAddress: raw.IPAddress,
		UserAgent: raw.UserAgent,
		Details:   raw.Details,
		Forwarded: false,
	}

	if err := r.store.AppendEvent(ctx, event); err != nil {
		metrics.EventRecordFailures.Inc()
		return nil, fmt.Errorf("failed to record security event: %w", err)
	}

	metrics.EventsRecorded.WithLabelValues(string(event.Type), string(event.Severity)).Inc()
	r.logger.Infow("Security event recorded",
		"event_id", event.ID,
		"type", event.Type,
		"severity", event.Severity,
		"identity", event.Identity,
		"source", event.Source)

	if event.Severity.RequiresEscalation() {
		r.escalateEvent(ctx, event)
	}

	return event, nil
}

// escalateEvent makes exactly one forward attempt and persists the
// forwarded flag on success.
func (r *Recorder) escalateEvent(ctx context.Context, event *core.SecurityEvent) {
	if r.forwarder == nil {
		r.logger.Warnf("No MDR forwarder configured, event %s not escalated", event.ID)
		return
	}

	start := time.Now()
	err := r.forwarder.Forward(ctx, event)
	metrics.EscalationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Escalations.WithLabelValues("failure").Inc()
		r.logger.Warnw("MDR escalation failed, event remains recorded",
			"event_id", event.ID,
			"severity", event.Severity,
			"error", err.Error())
		return
	}

	metrics.Escalations.WithLabelValues("success").Inc()
	event.Forwarded = true
	if err := r.store.SetEventForwarded(ctx, event.ID); err != nil {
		r.logger.Errorf("Failed to persist forwarded flag for event %s: %v", event.ID, err)
	}
}

// LogAuthFailure records a failed authentication attempt at the SSO gateway.
func (r *Recorder) LogAuthFailure(ctx context.Context, identity, ipAddress, userAgent, reason string) (*core.SecurityEvent, error) {
	return r.Record(ctx, RawEvent{
		Type:      core.EventTypeAuthFailure,
		Source:    core.SourceSSOGateway,
		Identity:  identity,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   core.Details{"reason": reason},
	})
}

// LogRBACViolation records a denied authorization attempt from the access
// guard.
func (r *Recorder) LogRBACViolation(ctx context.Context, identity, role string, attempted []string, ipAddress, userAgent string) (*core.SecurityEvent, error) {
	return r.Record(ctx, RawEvent{
		Type:      core.EventTypeRBACViolation,
		Source:    core.SourceRBACGuard,
		Identity:  identity,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: core.Details{
			"role":                  role,
			"attempted_permissions": attempted,
		},
	})
}

// LogSuspiciousActivity records a behavior-analytics detection. Severity is
// always derived from the risk score, overriding any caller classification;
// scores outside [0, 100] are rejected before anything is appended.
func (r *Recorder) LogSuspiciousActivity(ctx context.Context, identity, activityType string, riskScore int, ipAddress string, details core.Details) (*core.SecurityEvent, error) {
	if riskScore < core.MinRiskScore || riskScore > core.MaxRiskScore {
		return nil, fmt.Errorf("risk score %d out of range [%d, %d]", riskScore, core.MinRiskScore, core.MaxRiskScore)
	}

	merged := core.Details{
		"activity_type": activityType,
		"risk_score":    riskScore,
	}
	for k, v := range details {
		merged[k] = v
	}

	return r.Record(ctx, RawEvent{
		Type:      core.EventTypeSuspiciousActivity,
		Severity:  core.SeverityForRiskScore(riskScore),
		Source:    core.SourceUBAEngine,
		Identity:  identity,
		IPAddress: ipAddress,
		Details:   merged,
	})
}

// LogSessionHijack records a detected session hijacking attempt, always
// CRITICAL. The event's address is the current (new) address; the original
// is carried in the details.
func (r *Recorder) LogSessionHijack(ctx context.Context, identity, originalIP, newIP, userAgent string) (*core.SecurityEvent, error) {
	return r.Record(ctx, RawEvent{
		Type:      core.EventTypeSessionHijack,
		Severity:  core.SeverityCritical,
		Source:    core.SourceSessionMonitor,
		Identity:  identity,
		IPAddress: newIP,
		UserAgent: userAgent,
		Details: core.Details{
			"original_ip": originalIP,
			"new_ip":      newIP,
		},
	})
}

// UpdateStatus transitions an event's triage status. Unknown IDs return
// storage.ErrEventNotFound; transitions that violate the event lifecycle
// return core.ErrInvalidStateTransition. The store validates the
// transition against the stored status, so concurrent triagers cannot
// clobber each other. The log is untouched on either failure.
func (r *Recorder) UpdateStatus(ctx context.Context, eventID string, status core.EventStatus) (*core.SecurityEvent, error) {
	updated, err := r.store.UpdateEventStatus(ctx, eventID, status)
	if err != nil {
		return nil, err
	}

	r.logger.Infow("Security event status updated",
		"event_id", eventID,
		"status", status)
	return updated, nil
}

// EventsByType returns events of the given type in insertion order.
func (r *Recorder) EventsByType(ctx context.Context, eventType core.EventType) ([]*core.SecurityEvent, error) {
	return r.store.GetEventsByType(ctx, eventType)
}

// EventsByIdentity returns events for the given identity in insertion order.
func (r *Recorder) EventsByIdentity(ctx context.Context, identity string) ([]*core.SecurityEvent, error) {
	return r.store.GetEventsByIdentity(ctx, identity)
}
