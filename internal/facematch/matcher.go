package facematch

import (
	"context"
	"fmt"
	"math"

	"github.com/kozaktomas/face-registry/internal/database"
)

// RecordLookup fetches the record enrolled under name.
// It returns nil (and no error) when the name is not enrolled.
type RecordLookup func(ctx context.Context, name string) (*database.EnrolledRecord, error)

// Matcher classifies a query descriptor against a registry snapshot.
// It holds no state besides its threshold and is safe for concurrent use;
// it never mutates or retains the records it is given.
type Matcher struct {
	threshold float64
}

// New creates a matcher that treats distances strictly below threshold as the same identity.
func New(threshold float64) (*Matcher, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be a positive finite number, got %v", ErrInvalidInput, threshold)
	}
	return &Matcher{threshold: threshold}, nil
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// IsMatch reports whether distance is close enough to be the same identity.
// The threshold itself is not a match.
func (m *Matcher) IsMatch(distance float64) bool {
	return distance < m.threshold
}

// Nearest scans every record and returns the one closest to query.
// Records that cannot be compared (absent or wrongly sized descriptors) are
// counted as skipped and never win. Ties follow TieBreakFirstEncountered and
// are reported in Scan.TieBreak.
func Nearest(query []float32, records []database.EnrolledRecord) Scan {
	var scan Scan
	best := math.Inf(1)
	for i := range records {
		rec := &records[i]
		d := Distance(query, rec.Descriptor)
		if math.IsInf(d, 1) {
			scan.Skipped++
			continue
		}
		scan.Compared++
		switch {
		case d < best:
			best = d
			scan.Best = &Candidate{Name: rec.Name, Distance: d}
			scan.TieBreak = ""
		case d == best:
			scan.TieBreak = TieBreakFirstEncountered
		}
	}
	return scan
}

// Identify searches the whole snapshot for the identity behind query.
func (m *Matcher) Identify(query Descriptor, records []database.EnrolledRecord) (IdentifyResult, error) {
	if err := query.Validate(); err != nil {
		return IdentifyResult{}, err
	}
	if len(records) == 0 {
		return IdentifyResult{Outcome: OutcomeEmptyRegistry}, nil
	}

	scan := Nearest(query, records)
	result := IdentifyResult{
		Outcome:   OutcomeUnrecognized,
		Candidate: scan.Best,
		Skipped:   scan.Skipped,
	}
	if scan.Best != nil && m.IsMatch(scan.Best.Distance) {
		result.Outcome = OutcomeIdentified
	}
	return result, nil
}

// Verify checks a claim against the single record enrolled under claimedName.
// record is nil when the name is not enrolled. Only that record is compared;
// there is no fallback to a full scan.
//
// On OutcomeVerified the caller must record the access (bump the access
// count and last-access time). Any other outcome must leave the record untouched.
func (m *Matcher) Verify(claimedName string, query Descriptor, record *database.EnrolledRecord) (VerifyResult, error) {
	name, err := validateClaim(claimedName, query)
	if err != nil {
		return VerifyResult{}, err
	}
	return m.verify(name, query, record), nil
}

// VerifyByName looks the claimed record up and verifies query against it.
// Lookup errors are returned unmodified.
func (m *Matcher) VerifyByName(ctx context.Context, claimedName string, query Descriptor, lookup RecordLookup) (VerifyResult, error) {
	name, err := validateClaim(claimedName, query)
	if err != nil {
		return VerifyResult{}, err
	}
	record, err := lookup(ctx, name)
	if err != nil {
		return VerifyResult{}, err
	}
	return m.verify(name, query, record), nil
}

func (m *Matcher) verify(name string, query Descriptor, record *database.EnrolledRecord) VerifyResult {
	if record == nil {
		return VerifyResult{Outcome: OutcomeNameAbsent, Name: name}
	}

	d := Distance(query, record.Descriptor)
	result := VerifyResult{
		Outcome:   OutcomeRejected,
		Name:      record.Name,
		Candidate: &Candidate{Name: record.Name, Distance: d},
	}
	if m.IsMatch(d) {
		result.Outcome = OutcomeVerified
	}
	return result
}

// RegisterCheck enforces both uniqueness rules before newName may be enrolled:
// the name must be free and no enrolled descriptor may be within the threshold.
// The result is advisory unless records is a snapshot taken inside the
// store's serialized enrollment.
func (m *Matcher) RegisterCheck(newName string, query Descriptor, records []database.EnrolledRecord) (RegisterResult, error) {
	name, err := validateClaim(newName, query)
	if err != nil {
		return RegisterResult{}, err
	}

	for i := range records {
		if records[i].Name == name {
			return RegisterResult{Outcome: OutcomeNameTaken, Name: name}, nil
		}
	}

	scan := Nearest(query, records)
	if scan.Best != nil && m.IsMatch(scan.Best.Distance) {
		return RegisterResult{
			Outcome:  OutcomeDuplicateFace,
			Name:     name,
			Existing: scan.Best,
			Skipped:  scan.Skipped,
		}, nil
	}
	return RegisterResult{Outcome: OutcomeAccepted, Name: name, Skipped: scan.Skipped}, nil
}

func validateClaim(name string, query Descriptor) (string, error) {
	canonical, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if err := query.Validate(); err != nil {
		return "", err
	}
	return canonical, nil
}
