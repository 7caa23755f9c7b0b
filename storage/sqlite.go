package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite holds the SQLite database connections for the durable stores.
// Separate read and write pools leverage WAL mode's concurrent read
// capability: WAL allows one writer alongside many readers.
type SQLite struct {
	WriteDB *sql.DB // Write-only pool (MaxOpenConns=1 for WAL single writer)
	ReadDB  *sql.DB // Read-only pool for concurrent reads
	Path    string
	Logger  *zap.SugaredLogger
}

// configureSQLiteConnection applies WAL mode, foreign keys, and busy
// timeout to a connection pool. Connection-string pragmas are unreliable
// with this driver, so each is applied and verified explicitly.
func configureSQLiteConnection(db *sql.DB, poolType string, logger *zap.SugaredLogger) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	var fkEnabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to verify foreign keys: %w", err)
	}
	if fkEnabled != 1 {
		return fmt.Errorf("foreign keys not enabled (got: %d)", fkEnabled)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Debugf("SQLite %s pool configured", poolType)
	return nil
}

// NewSQLite opens the database at path, creating the parent directory if
// needed, and runs schema migrations.
func NewSQLite(path string, logger *zap.SugaredLogger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	writeDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite write pool: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	if err := configureSQLiteConnection(writeDB, "write", logger); err != nil {
		writeDB.Close()
		return nil, err
	}

	readDB, err := sql.Open("sqlite", path)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to open SQLite read pool: %w", err)
	}
	readDB.SetMaxOpenConns(10)

	if err := configureSQLiteConnection(readDB, "read", logger); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, err
	}

	s := &SQLite{
		WriteDB: writeDB,
		ReadDB:  readDB,
		Path:    path,
		Logger:  logger,
	}

	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates the schema if it does not exist. Events and assignments
// are append-only tables; only status and forwarded ever change on events.
func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS security_events (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		type       TEXT NOT NULL,
		severity   TEXT NOT NULL,
		status     TEXT NOT NULL,
		timestamp  TEXT NOT NULL,
		source     TEXT NOT NULL,
		identity   TEXT,
		ip_address TEXT,
		user_agent TEXT,
		details    TEXT,
		forwarded  INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_security_events_type ON security_events(type);
	CREATE INDEX IF NOT EXISTS idx_security_events_identity ON security_events(identity);

	CREATE TABLE IF NOT EXISTS role_assignments (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		identity    TEXT NOT NULL,
		role_id     TEXT NOT NULL,
		assigned_by TEXT NOT NULL,
		assigned_at TEXT NOT NULL,
		expires_at  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_role_assignments_identity ON role_assignments(identity);
	`

	if _, err := s.WriteDB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes both connection pools
func (s *SQLite) Close() error {
	var firstErr error
	if err := s.WriteDB.Close(); err != nil {
		firstErr = err
	}
	if err := s.ReadDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
