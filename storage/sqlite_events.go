package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"aegis/core"
)

// SQLiteEventStorage implements EventStorageInterface using SQLite
type SQLiteEventStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteEventStorage creates a new SQLite-backed event store
func NewSQLiteEventStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteEventStorage {
	return &SQLiteEventStorage{
		sqlite: sqlite,
		logger: logger,
	}
}

const eventColumns = `id, type, severity, status, timestamp, source, identity, ip_address, user_agent, details, forwarded`

// AppendEvent durably appends a fully-populated event
func (s *SQLiteEventStorage) AppendEvent(ctx context.Context, event *core.SecurityEvent) error {
	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal event details: %w", err)
	}

	query := `
		INSERT INTO security_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.sqlite.WriteDB.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		string(event.Severity),
		string(event.Status),
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.Source,
		event.Identity,
		event.IPAddress,
		event.UserAgent,
		string(detailsJSON),
		boolToInt(event.Forwarded),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID
func (s *SQLiteEventStorage) GetEvent(ctx context.Context, id string) (*core.SecurityEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM security_events WHERE id = ?`

	event, err := scanEvent(s.sqlite.ReadDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// UpdateEventStatus transitions the status of an existing event. The
// current status is read and validated inside a single write
// transaction, so a concurrent transition can never be overwritten by
// a stale one.
func (s *SQLiteEventStorage) UpdateEventStatus(ctx context.Context, id string, status core.EventStatus) (*core.SecurityEvent, error) {
	tx, err := s.sqlite.WriteDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warnf("Failed to rollback transaction: %v", err)
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM security_events WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event status: %w", err)
	}

	lifecycle := core.SecurityEvent{Status: core.EventStatus(current)}
	if err := lifecycle.TransitionTo(status); err != nil {
		return nil, err
	}

	query := `UPDATE security_events SET status = ? WHERE id = ? AND status = ?`
	if _, err := tx.ExecContext(ctx, query, string(status), id, current); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return s.GetEvent(ctx, id)
}

// SetEventForwarded marks an event as forwarded
func (s *SQLiteEventStorage) SetEventForwarded(ctx context.Context, id string) error {
	query := `UPDATE security_events SET forwarded = 1 WHERE id = ?`

	result, err := s.sqlite.WriteDB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to set forwarded flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// GetEventsByType returns events of the given type in insertion order
func (s *SQLiteEventStorage) GetEventsByType(ctx context.Context, eventType core.EventType) ([]*core.SecurityEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM security_events WHERE type = ? ORDER BY seq ASC`
	return s.queryEvents(ctx, query, string(eventType))
}

// GetEventsByIdentity returns events for the given identity in insertion order
func (s *SQLiteEventStorage) GetEventsByIdentity(ctx context.Context, identity string) ([]*core.SecurityEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM security_events WHERE identity = ? ORDER BY seq ASC`
	return s.queryEvents(ctx, query, identity)
}

// GetAllEvents returns all events in insertion order
func (s *SQLiteEventStorage) GetAllEvents(ctx context.Context) ([]*core.SecurityEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM security_events ORDER BY seq ASC`
	return s.queryEvents(ctx, query)
}

// GetEventCount returns the total number of recorded events
func (s *SQLiteEventStorage) GetEventCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.sqlite.ReadDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM security_events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *SQLiteEventStorage) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*core.SecurityEvent, error) {
	rows, err := s.sqlite.ReadDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("Failed to close rows: %v", err)
		}
	}()

	var events []*core.SecurityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*core.SecurityEvent, error) {
	var (
		event       core.SecurityEvent
		eventType   string
		severity    string
		status      string
		timestamp   string
		identity    sql.NullString
		ipAddress   sql.NullString
		userAgent   sql.NullString
		detailsJSON sql.NullString
		forwarded   int
	)

	err := row.Scan(
		&event.ID,
		&eventType,
		&severity,
		&status,
		&timestamp,
		&event.Source,
		&identity,
		&ipAddress,
		&userAgent,
		&detailsJSON,
		&forwarded,
	)
	if err != nil {
		return nil, err
	}

	event.Type = core.EventType(eventType)
	event.Severity = core.Severity(severity)
	event.Status = core.EventStatus(status)
	event.Identity = identity.String
	event.IPAddress = ipAddress.String
	event.UserAgent = userAgent.String
	event.Forwarded = forwarded != 0

	event.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
	}

	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &event.Details); err != nil {
			return nil, fmt.Errorf("failed to parse event details: %w", err)
		}
	}

	return &event, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
