package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aegis/rbac"
)

// SQLiteAssignmentStorage implements AssignmentStorageInterface using SQLite
type SQLiteAssignmentStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteAssignmentStorage creates a new SQLite-backed assignment store
func NewSQLiteAssignmentStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteAssignmentStorage {
	return &SQLiteAssignmentStorage{
		sqlite: sqlite,
		logger: logger,
	}
}

// AppendAssignment durably appends an assignment record
func (s *SQLiteAssignmentStorage) AppendAssignment(ctx context.Context, assignment *rbac.RoleAssignment) error {
	var expiresAt sql.NullString
	if assignment.ExpiresAt != nil {
		expiresAt = sql.NullString{String: assignment.ExpiresAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `
		INSERT INTO role_assignments (id, identity, role_id, assigned_by, assigned_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.sqlite.WriteDB.ExecContext(ctx, query,
		assignment.ID,
		assignment.Identity,
		assignment.RoleID,
		assignment.AssignedBy,
		assignment.AssignedAt.UTC().Format(time.RFC3339Nano),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append assignment: %w", err)
	}
	return nil
}

// GetAssignmentsByIdentity returns an identity's assignment history in insertion order
func (s *SQLiteAssignmentStorage) GetAssignmentsByIdentity(ctx context.Context, identity string) ([]*rbac.RoleAssignment, error) {
	query := `
		SELECT id, identity, role_id, assigned_by, assigned_at, expires_at
		FROM role_assignments
		WHERE identity = ?
		ORDER BY seq ASC
	`

	rows, err := s.sqlite.ReadDB.QueryContext(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("Failed to close rows: %v", err)
		}
	}()

	var assignments []*rbac.RoleAssignment
	for rows.Next() {
		var (
			a          rbac.RoleAssignment
			assignedAt string
			expiresAt  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Identity, &a.RoleID, &a.AssignedBy, &assignedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}

		a.AssignedAt, err = time.Parse(time.RFC3339Nano, assignedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse assignment timestamp: %w", err)
		}

		if expiresAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, expiresAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse assignment expiry: %w", err)
			}
			a.ExpiresAt = &t
		}

		assignments = append(assignments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}
