package soc

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aegis/core"
	"aegis/storage"
)

func seedEvent(t *testing.T, store *storage.MemoryEventStorage, id string, severity core.Severity, status core.EventStatus, ts time.Time) {
	t.Helper()
	require.NoError(t, store.AppendEvent(context.Background(), &core.SecurityEvent{
		ID:        id,
		Type:      core.EventTypeAuthFailure,
		Severity:  severity,
		Status:    status,
		Timestamp: ts,
		Source:    core.SourceSSOGateway,
		Identity:  "user-1",
	}))
}

func TestDashboard_Metrics(t *testing.T) {
	store := storage.NewMemoryEventStorage()
	dashboard := NewDashboard(store)
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)

	seedEvent(t, store, "SOC-1", core.SeverityMedium, core.EventStatusNew, now.Add(-2*time.Hour))
	seedEvent(t, store, "SOC-2", core.SeverityCritical, core.EventStatusInvestigating, now.Add(-1*time.Hour))
	seedEvent(t, store, "SOC-3", core.SeverityHigh, core.EventStatusResolved, now.Add(-30*time.Minute))
	seedEvent(t, store, "SOC-4", core.SeverityHigh, core.EventStatusResolved, now.Add(-48*time.Hour))
	seedEvent(t, store, "SOC-5", core.SeverityMedium, core.EventStatusFalsePositive, now.Add(-10*time.Minute))

	m, err := dashboard.Metrics(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 5, m.TotalEvents)
	assert.Equal(t, 1, m.CriticalAlerts)
	// NEW and INVESTIGATING are active; RESOLVED and FALSE_POSITIVE are not
	assert.Equal(t, 2, m.ActiveIncidents)
	// Only SOC-3 was resolved on the anchor day
	assert.Equal(t, 1, m.ResolvedToday)

	// All severities are present, zero-count included
	assert.Equal(t, map[string]int{
		"LOW":      0,
		"MEDIUM":   2,
		"HIGH":     2,
		"CRITICAL": 1,
	}, m.EventsBySeverity)

	// Recent events are reverse chronological by insertion
	require.Len(t, m.RecentEvents, 5)
	assert.Equal(t, "SOC-5", m.RecentEvents[0].ID)
	assert.Equal(t, "SOC-1", m.RecentEvents[4].ID)
}

func TestDashboard_Metrics_EmptyLog(t *testing.T) {
	dashboard := NewDashboard(storage.NewMemoryEventStorage())

	m, err := dashboard.Metrics(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Zero(t, m.TotalEvents)
	assert.Zero(t, m.CriticalAlerts)
	assert.Zero(t, m.ActiveIncidents)
	assert.Zero(t, m.ResolvedToday)
	assert.Equal(t, map[string]int{
		"LOW":      0,
		"MEDIUM":   0,
		"HIGH":     0,
		"CRITICAL": 0,
	}, m.EventsBySeverity)
	assert.Empty(t, m.RecentEvents)
}

func TestDashboard_Metrics_RecentEventsCapped(t *testing.T) {
	store := storage.NewMemoryEventStorage()
	dashboard := NewDashboard(store)
	now := time.Now().UTC()

	for i := 0; i < 15; i++ {
		seedEvent(t, store, fmt.Sprintf("SOC-%d", i), core.SeverityLow, core.EventStatusNew, now)
	}

	m, err := dashboard.Metrics(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, m.RecentEvents, 10)
	assert.Equal(t, "SOC-14", m.RecentEvents[0].ID)
	assert.Equal(t, "SOC-5", m.RecentEvents[9].ID)
}

func TestDashboard_Metrics_Idempotent(t *testing.T) {
	store := storage.NewMemoryEventStorage()
	dashboard := NewDashboard(store)
	now := time.Now().UTC()

	seedEvent(t, store, "SOC-1", core.SeverityCritical, core.EventStatusNew, now)

	first, err := dashboard.Metrics(context.Background(), now)
	require.NoError(t, err)
	second, err := dashboard.Metrics(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, first, second, "aggregation must not mutate the log")
}

func TestDashboard_ResolvedToday_UTCBoundary(t *testing.T) {
	store := storage.NewMemoryEventStorage()
	dashboard := NewDashboard(store)

	// 2026-03-15T23:30:00Z resolved; anchor just after UTC midnight next day
	seedEvent(t, store, "SOC-1", core.SeverityMedium, core.EventStatusResolved,
		time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC))

	sameDay, err := dashboard.Metrics(context.Background(), time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sameDay.ResolvedToday)

	nextDay, err := dashboard.Metrics(context.Background(), time.Date(2026, 3, 16, 0, 1, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, nextDay.ResolvedToday)
}

// A recorder-fed dashboard should reflect escalation outcomes.
func TestDashboard_WithRecorder(t *testing.T) {
	store := storage.NewMemoryEventStorage()
	recorder := NewRecorder(store, nil, zap.NewNop().Sugar())
	dashboard := NewDashboard(store)
	ctx := context.Background()

	_, err := recorder.LogSessionHijack(ctx, "user-1", "203.0.113.10", "198.51.100.7", "curl/8.0")
	require.NoError(t, err)
	_, err = recorder.LogAuthFailure(ctx, "user-1", "203.0.113.10", "curl/8.0", "bad password")
	require.NoError(t, err)

	m, err := dashboard.Metrics(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalEvents)
	assert.Equal(t, 1, m.CriticalAlerts)
	assert.Equal(t, 2, m.ActiveIncidents)
}
