// Package apperr defines the typed error kinds of the store. Some callers
// match on message text, so the strings built by the helpers are part of
// the contract.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means graph.json is missing at the requested scope.
	ErrNotConfigured = errors.New("not configured")
	// ErrNotFound means a node id or annotation filename is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a create collided with an existing node id.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput means a malformed view or an invalid status value.
	ErrInvalidInput = errors.New("invalid input")
)

// NoGraph reports a missing graph.json.
func NoGraph() error {
	return fmt.Errorf("%w: No graph.json found", ErrNotConfigured)
}

// NodeNotFound reports a missing node id.
func NodeNotFound(id string) error {
	return fmt.Errorf("%w: Node not found: %s", ErrNotFound, id)
}

// AnnotationNotFound reports a missing annotation file.
func AnnotationNotFound(filename string) error {
	return fmt.Errorf("%w: Annotation not found: %s", ErrNotFound, filename)
}

// NodeExists reports a duplicate node id on create.
func NodeExists(id string) error {
	return fmt.Errorf("%w: Node already exists: %s", ErrConflict, id)
}

// Invalid reports invalid caller input.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
