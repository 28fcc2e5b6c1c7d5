// Package facematch provides the face matching engine shared between CLI and web handlers:
// the descriptor distance, the nearest-neighbor scan and the threshold decisions
// built on top of it.
package facematch

// Outcome is the classified result of a matching decision.
type Outcome string

const (
	OutcomeEmptyRegistry Outcome = "empty_registry" // Nothing enrolled yet, caller should register
	OutcomeIdentified    Outcome = "identified"     // Best candidate is within the threshold
	OutcomeUnrecognized  Outcome = "unrecognized"   // No candidate within the threshold, new identity

	OutcomeNameAbsent Outcome = "name_absent" // Claimed name is not enrolled
	OutcomeVerified   Outcome = "verified"    // Descriptor matches the claimed identity
	OutcomeRejected   Outcome = "rejected"    // Descriptor does not match the claimed identity

	OutcomeNameTaken     Outcome = "name_taken"     // Another record already uses the name
	OutcomeDuplicateFace Outcome = "duplicate_face" // Descriptor already belongs to another identity
	OutcomeAccepted      Outcome = "accepted"       // Enrollment may proceed
)

// TieBreakPolicy names how equal minimum distances are resolved during a scan.
type TieBreakPolicy string

// TieBreakFirstEncountered keeps the earliest record in snapshot order when two
// records are at the same minimum distance. Stores return snapshots ordered by
// enrollment time and then name, so the winner is deterministic but carries no
// meaning with respect to identity.
const TieBreakFirstEncountered TieBreakPolicy = "first_encountered"

// Candidate is an enrolled identity together with its distance to a query.
type Candidate struct {
	Name     string
	Distance float64
}

// Scan is the result of a nearest-neighbor scan over a registry snapshot.
type Scan struct {
	// Best is the minimum-distance record, nil when no record could be compared.
	Best *Candidate
	// Compared counts records with a usable descriptor.
	Compared int
	// Skipped counts records whose stored descriptor could not be compared.
	Skipped int
	// TieBreak names the policy that picked Best among records at the same
	// minimum distance. Empty when the minimum was unique.
	TieBreak TieBreakPolicy
}

// IdentifyResult is the outcome of Identify.
// Candidate holds the match when identified, and the closest rejected record
// (if any) when unrecognized.
type IdentifyResult struct {
	Outcome   Outcome
	Candidate *Candidate
	Skipped   int
}

// VerifyResult is the outcome of a claim verification.
// Candidate is nil when the claimed name is not enrolled.
type VerifyResult struct {
	Outcome   Outcome
	Name      string
	Candidate *Candidate
}

// RegisterResult is the outcome of the enrollment checks.
// Existing is set for OutcomeDuplicateFace.
type RegisterResult struct {
	Outcome  Outcome
	Name     string
	Existing *Candidate
	Skipped  int
}
