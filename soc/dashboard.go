package soc

import (
	"context"
	"time"

	"aegis/core"
	"aegis/storage"
)

// recentEventLimit caps the recent-events slice in the dashboard snapshot.
const recentEventLimit = 10

// DashboardMetrics is a point-in-time aggregation of the security event
// log for the operations dashboard.
type DashboardMetrics struct {
	TotalEvents      int                   `json:"totalEvents"`
	CriticalAlerts   int                   `json:"criticalAlerts"`
	ActiveIncidents  int                   `json:"activeIncidents"`
	ResolvedToday    int                   `json:"resolvedToday"`
	EventsBySeverity map[string]int        `json:"eventsBySeverity"`
	RecentEvents     []*core.SecurityEvent `json:"recentEvents"`
}

// Dashboard computes aggregate views over the event log. It holds no state
// of its own; every snapshot is recomputed from storage.
type Dashboard struct {
	store storage.EventStorageInterface
}

func NewDashboard(store storage.EventStorageInterface) *Dashboard {
	return &Dashboard{store: store}
}

// Metrics computes a dashboard snapshot. The now parameter anchors the
// "today" window for resolved counts and is interpreted in UTC.
func (d *Dashboard) Metrics(ctx context.Context, now time.Time) (*DashboardMetrics, error) {
	events, err := d.store.GetAllEvents(ctx)
	if err != nil {
		return nil, err
	}

	today := now.UTC()
	m := &DashboardMetrics{
		TotalEvents:      len(events),
		EventsBySeverity: make(map[string]int, len(core.AllSeverities)),
		RecentEvents:     make([]*core.SecurityEvent, 0, recentEventLimit),
	}

	// Every severity appears in the snapshot, zero-count included.
	for _, severity := range core.AllSeverities {
		m.EventsBySeverity[string(severity)] = 0
	}

	for _, event := range events {
		m.EventsBySeverity[string(event.Severity)]++

		if event.Severity == core.SeverityCritical {
			m.CriticalAlerts++
		}
		if !event.IsFinalState() {
			m.ActiveIncidents++
		}
		if event.Status == core.EventStatusResolved && sameUTCDay(event.Timestamp, today) {
			m.ResolvedToday++
		}
	}

	// Last N events, most recent first.
	start := len(events) - recentEventLimit
	if start < 0 {
		start = 0
	}
	for i := len(events) - 1; i >= start; i-- {
		m.RecentEvents = append(m.RecentEvents, events[i])
	}

	return m, nil
}

func sameUTCDay(a, b time.Time) bool {
	au := a.UTC()
	bu := b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}
