package storage

import (
	"context"
	"sync"

	"aegis/core"
	"aegis/rbac"
)

// MemoryEventStorage is an in-memory EventStorageInterface implementation.
// Used in tests and as the default store when no database is configured.
//
// A single RWMutex guards the log; events are cloned on append and on read
// so callers never share mutable state with the log itself.
type MemoryEventStorage struct {
	mu     sync.RWMutex
	events []*core.SecurityEvent
	byID   map[string]*core.SecurityEvent
}

// NewMemoryEventStorage creates an empty in-memory event store
func NewMemoryEventStorage() *MemoryEventStorage {
	return &MemoryEventStorage{
		byID: make(map[string]*core.SecurityEvent),
	}
}

// AppendEvent appends a copy of the event to the log
func (m *MemoryEventStorage) AppendEvent(ctx context.Context, event *core.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[event.ID]; exists {
		return ErrDuplicateEvent
	}

	stored := event.Clone()
	m.events = append(m.events, stored)
	m.byID[stored.ID] = stored
	return nil
}

// GetEvent retrieves an event by ID
func (m *MemoryEventStorage) GetEvent(ctx context.Context, id string) (*core.SecurityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.byID[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return event.Clone(), nil
}

// UpdateEventStatus transitions the status of an existing event. The
// lifecycle check runs on the live record under the write lock, so a
// concurrent transition can never be overwritten by a stale one.
func (m *MemoryEventStorage) UpdateEventStatus(ctx context.Context, id string, status core.EventStatus) (*core.SecurityEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.byID[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	if err := event.TransitionTo(status); err != nil {
		return nil, err
	}
	return event.Clone(), nil
}

// SetEventForwarded marks an event as forwarded
func (m *MemoryEventStorage) SetEventForwarded(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.byID[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Forwarded = true
	return nil
}

// GetEventsByType returns events of the given type in insertion order
func (m *MemoryEventStorage) GetEventsByType(ctx context.Context, eventType core.EventType) ([]*core.SecurityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*core.SecurityEvent
	for _, event := range m.events {
		if event.Type == eventType {
			out = append(out, event.Clone())
		}
	}
	return out, nil
}

// GetEventsByIdentity returns events for the given identity in insertion order
func (m *MemoryEventStorage) GetEventsByIdentity(ctx context.Context, identity string) ([]*core.SecurityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*core.SecurityEvent
	for _, event := range m.events {
		if event.Identity == identity {
			out = append(out, event.Clone())
		}
	}
	return out, nil
}

// GetAllEvents returns all events in insertion order
func (m *MemoryEventStorage) GetAllEvents(ctx context.Context) ([]*core.SecurityEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.SecurityEvent, 0, len(m.events))
	for _, event := range m.events {
		out = append(out, event.Clone())
	}
	return out, nil
}

// GetEventCount returns the total number of recorded events
func (m *MemoryEventStorage) GetEventCount(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.events)), nil
}

// MemoryAssignmentStorage is an in-memory AssignmentStorageInterface
// implementation for tests and database-less deployments.
type MemoryAssignmentStorage struct {
	mu          sync.RWMutex
	assignments []*rbac.RoleAssignment
}

// NewMemoryAssignmentStorage creates an empty in-memory assignment store
func NewMemoryAssignmentStorage() *MemoryAssignmentStorage {
	return &MemoryAssignmentStorage{}
}

// AppendAssignment appends a copy of the assignment record
func (m *MemoryAssignmentStorage) AppendAssignment(ctx context.Context, assignment *rbac.RoleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *assignment
	m.assignments = append(m.assignments, &stored)
	return nil
}

// GetAssignmentsByIdentity returns an identity's assignment history
func (m *MemoryAssignmentStorage) GetAssignmentsByIdentity(ctx context.Context, identity string) ([]*rbac.RoleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*rbac.RoleAssignment
	for _, a := range m.assignments {
		if a.Identity == identity {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}
