package database

import "errors"

var (
	// ErrNotFound is returned when a named identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrNameTaken is returned when the storage layer's unique name constraint
	// rejects an insert. It backs up the logical check done before enrollment.
	ErrNameTaken = errors.New("name already taken")
)
