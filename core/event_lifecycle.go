package core

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition is returned when a status update violates the
// event lifecycle state machine.
var ErrInvalidStateTransition = errors.New("invalid status transition")

// validTransitions defines allowed status transitions for security events.
// The lifecycle is forward-only: RESOLVED and FALSE_POSITIVE are terminal.
var validTransitions = map[EventStatus][]EventStatus{
	EventStatusNew:           {EventStatusAcknowledged, EventStatusInvestigating, EventStatusResolved, EventStatusFalsePositive},
	EventStatusAcknowledged:  {EventStatusInvestigating, EventStatusResolved, EventStatusFalsePositive},
	EventStatusInvestigating: {EventStatusResolved, EventStatusFalsePositive},
	EventStatusResolved:      {},
	EventStatusFalsePositive: {},
}

// TransitionTo validates and executes a status transition.
func (e *SecurityEvent) TransitionTo(newStatus EventStatus) error {
	if newStatus == "" {
		return errors.New("new status cannot be empty")
	}

	if !newStatus.IsValid() {
		return fmt.Errorf("invalid event status: %s", newStatus)
	}

	allowed, exists := validTransitions[e.Status]
	if !exists {
		return fmt.Errorf("unknown current status: %s", e.Status)
	}

	for _, status := range allowed {
		if status == newStatus {
			e.Status = newStatus
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s (allowed: %v)", ErrInvalidStateTransition, e.Status, newStatus, allowed)
}

// CanTransitionTo checks if a transition is allowed without executing it.
func (e *SecurityEvent) CanTransitionTo(newStatus EventStatus) bool {
	if !newStatus.IsValid() {
		return false
	}
	for _, status := range validTransitions[e.Status] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsFinalState checks if the event is in a terminal status.
func (e *SecurityEvent) IsFinalState() bool {
	allowed, exists := validTransitions[e.Status]
	return exists && len(allowed) == 0
}
