package domain

import "errors"

var (
	// ErrNotFound reports that the target aggregate or sub-entity does not
	// exist in the persistent store.
	ErrNotFound = errors.New("customer not found")
	// ErrConflict reports a unique-constraint violation (email or phone).
	ErrConflict = errors.New("customer conflict")
)
