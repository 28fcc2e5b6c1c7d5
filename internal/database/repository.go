package database

import (
	"context"
	"time"
)

// IdentityReader provides read-only access to the registry
type IdentityReader interface {
	// Snapshot returns every enrolled record ordered by creation time, then name.
	// The returned slice is owned by the caller.
	Snapshot(ctx context.Context) ([]EnrolledRecord, error)
	// Get retrieves a record by name, returns nil if not found
	Get(ctx context.Context, name string) (*EnrolledRecord, error)
	// List returns all records without descriptors, ordered by name
	List(ctx context.Context) ([]UserSummary, error)
	// Count returns the total number of enrolled identities
	Count(ctx context.Context) (int, error)
}

// EnrollGuard inspects the registry snapshot taken inside the store's
// serialized enrollment and reports whether the new record may be inserted.
type EnrollGuard func(snapshot []EnrolledRecord) (bool, error)

// IdentityStore provides read and write access to the registry
type IdentityStore interface {
	IdentityReader

	// Enroll inserts rec if guard approves. Concurrent enrollments are
	// serialized, so the snapshot the guard sees cannot change before the
	// insert commits. Returns whether the record was inserted. A name clash
	// detected by the storage layer itself is reported as ErrNameTaken.
	Enroll(ctx context.Context, rec *EnrolledRecord, guard EnrollGuard) (bool, error)

	// Touch records a successful verification: sets the last-access time and
	// increments the access count. Returns ErrNotFound if the name is gone.
	Touch(ctx context.Context, name string, at time.Time) error

	// Delete removes a record. Returns ErrNotFound if the name does not exist.
	Delete(ctx context.Context, name string) error

	// Close releases the underlying connections.
	Close() error
}
