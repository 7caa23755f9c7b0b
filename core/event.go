package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a security event. The four built-in types form a
// closed set for classification purposes; custom types are accepted and
// default to medium severity.
type EventType string

const (
	EventTypeAuthFailure        EventType = "AUTH_FAILURE"
	EventTypeRBACViolation      EventType = "RBAC_VIOLATION"
	EventTypeSuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
	EventTypeSessionHijack      EventType = "SESSION_HIJACK_ATTEMPT"
)

// Severity represents the urgency classification of a security event.
// Ordering is LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// AllSeverities returns all valid severities in ascending order
var AllSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// severityRank maps severities to their position in the ordering
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at or above min in the severity ordering.
// Unknown severities rank below LOW.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// RequiresEscalation reports whether events of this severity must be
// forwarded to the external detection-and-response service.
func (s Severity) RequiresEscalation() bool {
	return s.AtLeast(SeverityHigh)
}

// EventStatus represents the triage status of a security event
type EventStatus string

const (
	EventStatusNew           EventStatus = "NEW"
	EventStatusAcknowledged  EventStatus = "ACKNOWLEDGED"
	EventStatusInvestigating EventStatus = "INVESTIGATING"
	EventStatusResolved      EventStatus = "RESOLVED"
	EventStatusFalsePositive EventStatus = "FALSE_POSITIVE"
)

// String returns the string representation
func (s EventStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusNew, EventStatusAcknowledged, EventStatusInvestigating,
		EventStatusResolved, EventStatusFalsePositive:
		return true
	default:
		return false
	}
}

// Details is the free-form structured payload attached to a security event.
// Shape genuinely varies by event type, so it stays schemaless.
type Details map[string]interface{}

// SecurityEvent is a single durable record in the security event log.
//
// Severity and the escalation Forwarded flag are set exactly once at
// recording time; only Status changes over the event's lifetime. Events are
// never deleted.
type SecurityEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Severity  Severity    `json:"severity"`
	Status    EventStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Identity  string      `json:"identity,omitempty"`
	IPAddress string      `json:"ip_address"`
	UserAgent string      `json:"user_agent"`
	Details   Details     `json:"details"`
	Forwarded bool        `json:"forwarded"`
}

// NewEventID generates a sortable, generation-time-ordered event ID.
// UUIDv7 embeds a millisecond timestamp in its most significant bits, so
// lexical order matches creation order.
func NewEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to v4
		// rather than dropping the event.
		id = uuid.New()
	}
	return fmt.Sprintf("SOC-%s", id.String())
}

// Clone returns a deep copy of the event. Storage implementations return
// clones so readers never share mutable state with the log.
func (e *SecurityEvent) Clone() *SecurityEvent {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Details != nil {
		clone.Details = make(Details, len(e.Details))
		for k, v := range e.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}
