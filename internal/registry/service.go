// Package registry runs matching decisions against the identity store.
// It owns the side effects the matcher only describes: recording accesses on
// verification and inserting accepted enrollments atomically with their
// duplicate checks.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/kozaktomas/face-registry/internal/metrics"
)

// Service coordinates the matcher and the identity store.
type Service struct {
	store   database.IdentityStore
	matcher *facematch.Matcher
	index   *database.NeighborIndex
	now     func() time.Time
}

// NewService creates a registry service.
func NewService(store database.IdentityStore, matcher *facematch.Matcher) *Service {
	return &Service{
		store:   store,
		matcher: matcher,
		index:   database.NewNeighborIndex(),
		now:     time.Now,
	}
}

// Threshold returns the matcher's similarity threshold.
func (s *Service) Threshold() float64 {
	return s.matcher.Threshold()
}

func observe(mode string, start time.Time, outcome facematch.Outcome, err error) {
	metrics.DecisionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		metrics.DecisionsTotal.WithLabelValues(mode, string(outcome)).Inc()
	case !errors.Is(err, facematch.ErrInvalidInput):
		metrics.DecisionErrorsTotal.WithLabelValues(mode).Inc()
	}
}

func reportSkipped(mode string, skipped int) {
	if skipped == 0 {
		return
	}
	metrics.CorruptRecordsTotal.Add(float64(skipped))
	log.Printf("Warning: %s scan skipped %d enrolled records with unusable descriptors", mode, skipped)
}

// Check identifies query against the whole registry.
func (s *Service) Check(ctx context.Context, query facematch.Descriptor) (res facematch.IdentifyResult, err error) {
	start := time.Now()
	defer func() { observe(metrics.ModeIdentify, start, res.Outcome, err) }()

	if err := query.Validate(); err != nil {
		return facematch.IdentifyResult{}, err
	}

	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return facematch.IdentifyResult{}, fmt.Errorf("loading registry snapshot: %w", err)
	}
	metrics.EnrolledIdentities.Set(float64(len(records)))

	res, err = s.matcher.Identify(query, records)
	if err != nil {
		return facematch.IdentifyResult{}, err
	}
	reportSkipped(metrics.ModeIdentify, res.Skipped)
	return res, nil
}

// Verify checks a name claim. A verified claim is recorded as an access;
// the record is left alone on every other outcome or error.
func (s *Service) Verify(ctx context.Context, name string, query facematch.Descriptor) (res facematch.VerifyResult, err error) {
	start := time.Now()
	defer func() { observe(metrics.ModeVerify, start, res.Outcome, err) }()

	res, err = s.matcher.VerifyByName(ctx, name, query, s.store.Get)
	if err != nil {
		if errors.Is(err, facematch.ErrInvalidInput) {
			return facematch.VerifyResult{}, err
		}
		return facematch.VerifyResult{}, fmt.Errorf("looking up %q: %w", facematch.CanonicalName(name), err)
	}

	if res.Outcome == facematch.OutcomeVerified {
		if err := s.store.Touch(ctx, res.Name, s.now()); err != nil {
			return facematch.VerifyResult{}, fmt.Errorf("recording access for %q: %w", res.Name, err)
		}
	}
	return res, nil
}

// Register enrolls name with query if both the name and the face are new.
// The checks run inside the store's serialized enrollment, so concurrent
// registrations of the same face under different names cannot both succeed.
// The stored record is returned when the outcome is accepted.
func (s *Service) Register(ctx context.Context, name string, query facematch.Descriptor) (res facematch.RegisterResult, rec *database.EnrolledRecord, err error) {
	start := time.Now()
	defer func() { observe(metrics.ModeRegister, start, res.Outcome, err) }()

	canonical, err := facematch.ValidateName(name)
	if err != nil {
		return facematch.RegisterResult{}, nil, err
	}
	if err := query.Validate(); err != nil {
		return facematch.RegisterResult{}, nil, err
	}

	now := s.now()
	rec = &database.EnrolledRecord{
		ID:           uuid.NewString(),
		Name:         canonical,
		Descriptor:   append([]float32(nil), query...),
		CreatedAt:    now,
		LastAccessAt: now,
		AccessCount:  constants.InitialAccessCount,
	}

	inserted, err := s.store.Enroll(ctx, rec, func(snapshot []database.EnrolledRecord) (bool, error) {
		metrics.EnrolledIdentities.Set(float64(len(snapshot)))
		check, err := s.matcher.RegisterCheck(canonical, query, snapshot)
		if err != nil {
			return false, err
		}
		res = check
		return check.Outcome == facematch.OutcomeAccepted, nil
	})
	switch {
	case errors.Is(err, database.ErrNameTaken):
		return facematch.RegisterResult{Outcome: facematch.OutcomeNameTaken, Name: canonical}, nil, nil
	case errors.Is(err, facematch.ErrInvalidInput):
		return facematch.RegisterResult{}, nil, err
	case err != nil:
		return facematch.RegisterResult{}, nil, fmt.Errorf("enrolling %q: %w", canonical, err)
	}

	reportSkipped(metrics.ModeRegister, res.Skipped)
	if !inserted {
		return res, nil, nil
	}

	s.index.Invalidate()
	log.Printf("Registered new identity %q", sanitizeForLog(canonical))
	return res, rec, nil
}

// Neighbors returns up to k enrolled identities closest to query, for
// diagnostics. Candidates come from the approximate HNSW index and are
// reranked by exact distance; decisions never depend on this view.
func (s *Service) Neighbors(ctx context.Context, query facematch.Descriptor, k int) ([]facematch.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = constants.DefaultNeighborLimit
	}
	k = min(k, constants.MaxNeighborLimit)

	if err := s.refreshIndex(ctx); err != nil {
		return nil, err
	}

	hits, err := s.index.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("searching neighbor index: %w", err)
	}

	candidates := make([]facematch.Candidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, facematch.Candidate{
			Name:     hit.Name,
			Distance: facematch.Distance(query, hit.Descriptor),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// refreshIndex rebuilds the neighbor index when it was invalidated locally or
// the registry size changed underneath it (another process enrolled or deleted).
func (s *Service) refreshIndex(ctx context.Context) error {
	if !s.index.Stale() {
		count, err := s.store.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting identities: %w", err)
		}
		if count == s.index.Len() {
			return nil
		}
	}

	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading registry snapshot: %w", err)
	}
	added := s.index.Build(records)
	if skipped := len(records) - added; skipped > 0 {
		log.Printf("Warning: neighbor index left out %d records with unusable descriptors", skipped)
	}
	return nil
}

// List returns all enrolled identities without descriptors.
func (s *Service) List(ctx context.Context) ([]database.UserSummary, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	return users, nil
}

// Delete removes an enrolled identity. Returns database.ErrNotFound for unknown names.
func (s *Service) Delete(ctx context.Context, name string) error {
	canonical, err := facematch.ValidateName(name)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, canonical); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting %q: %w", canonical, err)
	}
	s.index.Invalidate()
	log.Printf("Deleted identity %q", sanitizeForLog(canonical))
	return nil
}
