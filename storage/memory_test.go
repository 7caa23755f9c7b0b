package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/core"
	"aegis/rbac"
)

func testEvent(id string, eventType core.EventType, identity string) *core.SecurityEvent {
	return &core.SecurityEvent{
		ID:        id,
		Type:      eventType,
		Severity:  core.SeverityMedium,
		Status:    core.EventStatusNew,
		Timestamp: time.Now().UTC(),
		Source:    core.SourceSSOGateway,
		Identity:  identity,
		IPAddress: "203.0.113.10",
		Details:   core.Details{"reason": "test"},
	}
}

func TestMemoryEventStorage_AppendAndGet(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	event := testEvent("SOC-1", core.EventTypeAuthFailure, "user-1")
	require.NoError(t, store.AppendEvent(ctx, event))

	got, err := store.GetEvent(ctx, "SOC-1")
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Type, got.Type)

	_, err = store.GetEvent(ctx, "SOC-missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestMemoryEventStorage_DuplicateAppend(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, testEvent("SOC-1", core.EventTypeAuthFailure, "user-1")))
	err := store.AppendEvent(ctx, testEvent("SOC-1", core.EventTypeRBACViolation, "user-2"))
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	count, err := store.GetEventCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryEventStorage_ReadersDoNotShareState(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, testEvent("SOC-1", core.EventTypeAuthFailure, "user-1")))

	got, err := store.GetEvent(ctx, "SOC-1")
	require.NoError(t, err)
	got.Status = core.EventStatusResolved
	got.Details["reason"] = "tampered"

	fresh, err := store.GetEvent(ctx, "SOC-1")
	require.NoError(t, err)
	assert.Equal(t, core.EventStatusNew, fresh.Status)
	assert.Equal(t, "test", fresh.Details["reason"])
}

func TestMemoryEventStorage_FiltersPreserveInsertionOrder(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		identity := "user-a"
		if i%2 == 1 {
			identity = "user-b"
		}
		require.NoError(t, store.AppendEvent(ctx, testEvent(fmt.Sprintf("SOC-%d", i), core.EventTypeAuthFailure, identity)))
	}

	byIdentity, err := store.GetEventsByIdentity(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, byIdentity, 3)
	assert.Equal(t, "SOC-0", byIdentity[0].ID)
	assert.Equal(t, "SOC-2", byIdentity[1].ID)
	assert.Equal(t, "SOC-4", byIdentity[2].ID)

	byType, err := store.GetEventsByType(ctx, core.EventTypeRBACViolation)
	require.NoError(t, err)
	assert.Empty(t, byType)
}

func TestMemoryEventStorage_UpdateStatusAndForwarded(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, testEvent("SOC-1", core.EventTypeRBACViolation, "user-1")))

	updated, err := store.UpdateEventStatus(ctx, "SOC-1", core.EventStatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, core.EventStatusAcknowledged, updated.Status)

	_, err = store.UpdateEventStatus(ctx, "SOC-missing", core.EventStatusResolved)
	assert.ErrorIs(t, err, ErrEventNotFound)

	require.NoError(t, store.SetEventForwarded(ctx, "SOC-1"))
	got, err := store.GetEvent(ctx, "SOC-1")
	require.NoError(t, err)
	assert.True(t, got.Forwarded)

	assert.ErrorIs(t, store.SetEventForwarded(ctx, "SOC-missing"), ErrEventNotFound)
}

func TestMemoryEventStorage_UpdateStatusValidatesLifecycle(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	require.NoError(t, store.AppendEvent(ctx, testEvent("SOC-1", core.EventTypeRBACViolation, "user-1")))

	_, err := store.UpdateEventStatus(ctx, "SOC-1", core.EventStatusResolved)
	require.NoError(t, err)

	// RESOLVED is terminal; the store itself rejects the move
	_, err = store.UpdateEventStatus(ctx, "SOC-1", core.EventStatusAcknowledged)
	assert.ErrorIs(t, err, core.ErrInvalidStateTransition)

	got, err := store.GetEvent(ctx, "SOC-1")
	require.NoError(t, err)
	assert.Equal(t, core.EventStatusResolved, got.Status)
}

func TestMemoryEventStorage_ConcurrentAppends(t *testing.T) {
	store := NewMemoryEventStorage()
	ctx := context.Background()

	const writers = 10
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("SOC-%d-%d", w, i)
				_ = store.AppendEvent(ctx, testEvent(id, core.EventTypeAuthFailure, "user-1"))
			}
		}(w)
	}
	wg.Wait()

	count, err := store.GetEventCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(writers*perWriter), count)
}

func TestMemoryAssignmentStorage(t *testing.T) {
	store := NewMemoryAssignmentStorage()
	ctx := context.Background()

	first := &rbac.RoleAssignment{
		ID:         "assign-1",
		Identity:   "user-1",
		RoleID:     rbac.RoleConsultant,
		AssignedBy: "admin-1",
		AssignedAt: time.Now().UTC(),
	}
	second := &rbac.RoleAssignment{
		ID:         "assign-2",
		Identity:   "user-1",
		RoleID:     rbac.RoleAdminStaff,
		AssignedBy: "admin-1",
		AssignedAt: time.Now().UTC(),
	}

	require.NoError(t, store.AppendAssignment(ctx, first))
	require.NoError(t, store.AppendAssignment(ctx, second))

	history, err := store.GetAssignmentsByIdentity(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, rbac.RoleConsultant, history[0].RoleID)
	assert.Equal(t, rbac.RoleAdminStaff, history[1].RoleID)

	other, err := store.GetAssignmentsByIdentity(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
