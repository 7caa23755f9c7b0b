package escalate

import (
	"context"
	"sync"

	"aegis/core"
)

// MockForwarder captures forwarded events for tests. It can be configured
// to fail, simulating MDR unavailability.
type MockForwarder struct {
	mu       sync.Mutex
	events   []*core.SecurityEvent
	failWith error
}

// NewMockForwarder creates a mock forwarder that succeeds by default
func NewMockForwarder() *MockForwarder {
	return &MockForwarder{}
}

// FailWith makes subsequent Forward calls return err. Pass nil to restore
// success.
func (m *MockForwarder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Forward records the attempt and returns the configured error, if any.
// The event is captured even on failure so tests can assert attempt counts.
func (m *MockForwarder) Forward(ctx context.Context, event *core.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event.Clone())
	return m.failWith
}

// Events returns the captured forward attempts in order
func (m *MockForwarder) Events() []*core.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.SecurityEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Count returns the number of forward attempts
func (m *MockForwarder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
