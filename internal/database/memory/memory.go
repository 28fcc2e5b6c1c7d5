// Package memory provides an in-memory identity store.
// It backs `serve --memory` and is used by tests, with error injection for
// exercising infrastructure failures.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
)

// Store is a mutex-guarded implementation of database.IdentityStore
type Store struct {
	mu      sync.RWMutex
	records map[string]*database.EnrolledRecord
	now     func() time.Time

	// Error injection
	SnapshotError error
	GetError      error
	ListError     error
	CountError    error
	EnrollError   error
	TouchError    error
	DeleteError   error

	// TouchCalls counts Touch invocations, including failed ones
	TouchCalls int
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		records: make(map[string]*database.EnrolledRecord),
		now:     time.Now,
	}
}

// Open adapts New to database.Opener.
func Open(_ context.Context, _ *config.DatabaseConfig) (database.IdentityStore, error) {
	return New(), nil
}

// Add stores a record directly, bypassing the enrollment guard.
// Missing IDs and creation times are filled in.
func (s *Store) Add(rec database.EnrolledRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(&rec)
}

func (s *Store) insertLocked(rec *database.EnrolledRecord) {
	c := rec.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.LastAccessAt.IsZero() {
		c.LastAccessAt = c.CreatedAt
	}
	s.records[c.Name] = &c
	*rec = c.Clone()
}

func (s *Store) snapshotLocked() []database.EnrolledRecord {
	out := make([]database.EnrolledRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Snapshot returns copies of all records ordered by creation time, then name
func (s *Store) Snapshot(ctx context.Context) ([]database.EnrolledRecord, error) {
	if s.SnapshotError != nil {
		return nil, s.SnapshotError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

// Get retrieves a copy of the record enrolled under name
func (s *Store) Get(ctx context.Context, name string) (*database.EnrolledRecord, error) {
	if s.GetError != nil {
		return nil, s.GetError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return nil, nil
	}
	c := rec.Clone()
	return &c, nil
}

// List returns all records without descriptors, ordered by name
func (s *Store) List(ctx context.Context) ([]database.UserSummary, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.UserSummary, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Count returns the number of enrolled identities
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.CountError != nil {
		return 0, s.CountError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Enroll runs guard and inserts rec while holding the write lock
func (s *Store) Enroll(ctx context.Context, rec *database.EnrolledRecord, guard database.EnrollGuard) (bool, error) {
	if s.EnrollError != nil {
		return false, s.EnrollError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := guard(s.snapshotLocked())
	if err != nil || !ok {
		return false, err
	}
	if _, exists := s.records[rec.Name]; exists {
		return false, database.ErrNameTaken
	}
	s.insertLocked(rec)
	return true, nil
}

// Touch records a successful verification
func (s *Store) Touch(ctx context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TouchCalls++
	if s.TouchError != nil {
		return s.TouchError
	}
	rec, ok := s.records[name]
	if !ok {
		return database.ErrNotFound
	}
	rec.LastAccessAt = at
	rec.AccessCount++
	return nil
}

// Delete removes a record
func (s *Store) Delete(ctx context.Context, name string) error {
	if s.DeleteError != nil {
		return s.DeleteError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[name]; !ok {
		return database.ErrNotFound
	}
	delete(s.records, name)
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// SetClock overrides the time source used for creation timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
