package database

import (
	"time"
)

// EnrolledRecord represents an enrolled identity stored in the registry
type EnrolledRecord struct {
	ID           string
	Name         string
	Descriptor   []float32
	CreatedAt    time.Time
	LastAccessAt time.Time
	AccessCount  int
}

// UserSummary is an enrolled identity without its descriptor, used for listings
type UserSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessAt time.Time `json:"last_access_at"`
	AccessCount  int       `json:"access_count"`
}

// Summary returns the record without its descriptor.
func (r *EnrolledRecord) Summary() UserSummary {
	return UserSummary{
		ID:           r.ID,
		Name:         r.Name,
		CreatedAt:    r.CreatedAt,
		LastAccessAt: r.LastAccessAt,
		AccessCount:  r.AccessCount,
	}
}

// Clone returns a deep copy so callers can never alias store-owned descriptors.
func (r *EnrolledRecord) Clone() EnrolledRecord {
	c := *r
	if r.Descriptor != nil {
		c.Descriptor = append([]float32(nil), r.Descriptor...)
	}
	return c
}
