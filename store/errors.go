package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrExists is returned when creating an artifact that already exists.
	ErrExists = errors.New("artifact already exists")
	// ErrImmutable is returned when editing an artifact whose status
	// forbids body changes. Amendment is supersede-only.
	ErrImmutable = errors.New("artifact is immutable")
	// ErrInvalidTransition is returned for illegal status transitions.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrGate is returned when a phase gate blocks an operation.
	ErrGate = errors.New("phase gate not satisfied")
	// ErrNotTerminal is returned when archiving an artifact that is
	// still in an active status.
	ErrNotTerminal = errors.New("artifact is not in a terminal status")
	// ErrNotInitialized is returned when the artifact tree is missing.
	ErrNotInitialized = errors.New("artifact tree not initialized")
)
