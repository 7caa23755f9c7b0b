package storage

import "errors"

// Storage error constants
var (
	// ErrEventNotFound is returned when a security event is not found
	ErrEventNotFound = errors.New("security event not found")

	// ErrRoleNotFound is returned when a role is not found
	ErrRoleNotFound = errors.New("role not found")

	// ErrAssignmentNotFound is returned when a role assignment is not found
	ErrAssignmentNotFound = errors.New("role assignment not found")

	// ErrDuplicateEvent is returned when appending an event whose ID already exists
	ErrDuplicateEvent = errors.New("event already exists")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)
