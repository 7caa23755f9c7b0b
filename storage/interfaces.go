package storage

import (
	"context"

	"aegis/core"
	"aegis/rbac"
)

// EventStorageInterface defines the contract for the durable security
// event log. The log is append-only: events are never deleted, and only
// status and the escalation-forwarded flag change after append.
//
// Implementations must be safe for concurrent use. Appends and updates are
// mutually exclusive per event; reads observe a consistent snapshot and
// never a partially-constructed event. The forwarded flag may become
// visible slightly after the event itself (eventually consistent).
type EventStorageInterface interface {
	// AppendEvent durably appends a fully-populated event.
	// Returns ErrDuplicateEvent if the ID already exists.
	AppendEvent(ctx context.Context, event *core.SecurityEvent) error

	// GetEvent retrieves an event by ID.
	// Returns ErrEventNotFound if the event does not exist.
	GetEvent(ctx context.Context, id string) (*core.SecurityEvent, error)

	// UpdateEventStatus transitions the status of an existing event,
	// validating the lifecycle atomically against the stored status.
	// Returns ErrEventNotFound if the event does not exist, and
	// core.ErrInvalidStateTransition if the lifecycle forbids the move.
	UpdateEventStatus(ctx context.Context, id string, status core.EventStatus) (*core.SecurityEvent, error)

	// SetEventForwarded marks an event as forwarded to the external
	// detection-and-response service.
	// Returns ErrEventNotFound if the event does not exist.
	SetEventForwarded(ctx context.Context, id string) error

	// GetEventsByType returns events of the given type in insertion order.
	GetEventsByType(ctx context.Context, eventType core.EventType) ([]*core.SecurityEvent, error)

	// GetEventsByIdentity returns events for the given subject identity
	// in insertion order.
	GetEventsByIdentity(ctx context.Context, identity string) ([]*core.SecurityEvent, error)

	// GetAllEvents returns all events in insertion order.
	GetAllEvents(ctx context.Context) ([]*core.SecurityEvent, error)

	// GetEventCount returns the total number of recorded events.
	GetEventCount(ctx context.Context) (int64, error)
}

// AssignmentStorageInterface defines the contract for the append-only
// role-assignment history. The current binding for an identity may be
// superseded by a newer record, but history is never mutated in place.
type AssignmentStorageInterface interface {
	// AppendAssignment durably appends an assignment record.
	AppendAssignment(ctx context.Context, assignment *rbac.RoleAssignment) error

	// GetAssignmentsByIdentity returns an identity's assignment history
	// in insertion order.
	GetAssignmentsByIdentity(ctx context.Context, identity string) ([]*rbac.RoleAssignment, error)
}
