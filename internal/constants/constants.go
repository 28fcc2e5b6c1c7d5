// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Descriptor constants
const (
	// DescriptorSize is the number of values in a face descriptor produced by
	// the upstream feature extractor
	DescriptorSize = 128
)

// Face matching constants
const (
	// DefaultSimilarityThreshold is the Euclidean distance below which two
	// descriptors are considered the same identity.
	// Lower values = stricter matching
	DefaultSimilarityThreshold = 0.45

	// DefaultNeighborLimit is the default number of candidates returned by the
	// neighbor diagnostic endpoint
	DefaultNeighborLimit = 5

	// MaxNeighborLimit caps the neighbor diagnostic result size
	MaxNeighborLimit = 50
)

// Enrollment constants
const (
	// InitialAccessCount is the access count of a freshly registered identity.
	// Registration itself counts as the first successful access.
	InitialAccessCount = 1
)
