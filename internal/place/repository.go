// Package place provides models and repository for accessibility-verified
// venues, their verification records, and sponsorship arrangements.
package place

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/accessmate/accessrank/internal/geo"
)

// Common errors for venue operations.
var (
	ErrVenueNotFound = errors.New("venue not found")
)

// SearchQuery restricts a venue search to a bounding box and optional category.
type SearchQuery struct {
	Bounds   geo.Bounds
	Category Category // empty means all categories
	Limit    int      // maximum venues to return; <= 0 means no limit
}

// VenueRepository defines the read interface the ranking service depends on.
// Implementations must return active venues inside the bounding box with
// their recent verification records and currently-relevant sponsorships
// eagerly loaded, so ranking never issues per-venue round trips.
type VenueRepository interface {
	// SearchActive returns active venues within the query bounds, optionally
	// restricted to a category, ordered by venue ID for determinism.
	SearchActive(ctx context.Context, q SearchQuery) ([]*Venue, error)

	// GetByID retrieves a venue by its ID, including verifications and
	// sponsorships. Returns ErrVenueNotFound if no venue exists.
	GetByID(ctx context.Context, id string) (*Venue, error)
}

// InMemoryVenueRepository is an in-memory implementation of VenueRepository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryVenueRepository struct {
	mu     sync.RWMutex
	venues map[string]*Venue
}

// NewInMemoryVenueRepository creates a new in-memory venue repository.
func NewInMemoryVenueRepository() *InMemoryVenueRepository {
	return &InMemoryVenueRepository{
		venues: make(map[string]*Venue),
	}
}

// Put stores a venue, replacing any existing venue with the same ID.
func (r *InMemoryVenueRepository) Put(venue *Venue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[venue.ID] = copyVenue(venue)
}

// SearchActive returns active venues within the query bounds, optionally
// restricted to a category, ordered by venue ID for determinism.
func (r *InMemoryVenueRepository) SearchActive(ctx context.Context, q SearchQuery) ([]*Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Venue
	for _, v := range r.venues {
		if v.Status != StatusActive {
			continue
		}
		if !q.Bounds.Contains(v.Lat, v.Lng) {
			continue
		}
		if q.Category != "" && v.Category != q.Category {
			continue
		}
		results = append(results, copyVenue(v))
	}

	// Stable order so repeated searches return identical slices.
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// GetByID retrieves a venue by its ID.
func (r *InMemoryVenueRepository) GetByID(ctx context.Context, id string) (*Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	return copyVenue(v), nil
}

// copyVenue returns a deep copy so callers cannot mutate stored state.
func copyVenue(v *Venue) *Venue {
	venueCopy := *v

	if v.VerifiedAt != nil {
		t := *v.VerifiedAt
		venueCopy.VerifiedAt = &t
	}
	if v.AccessibilityConfidence != nil {
		c := *v.AccessibilityConfidence
		venueCopy.AccessibilityConfidence = &c
	}
	if v.CommunityScore != nil {
		s := *v.CommunityScore
		venueCopy.CommunityScore = &s
	}

	venueCopy.Amenities = append([]string(nil), v.Amenities...)

	venueCopy.Verifications = make([]VerificationRecord, len(v.Verifications))
	for i, rec := range v.Verifications {
		recCopy := rec
		if rec.ExpiresAt != nil {
			t := *rec.ExpiresAt
			recCopy.ExpiresAt = &t
		}
		recCopy.Evidence = append([]string(nil), rec.Evidence...)
		venueCopy.Verifications[i] = recCopy
	}

	venueCopy.Sponsorships = make([]Sponsorship, len(v.Sponsorships))
	for i, sp := range v.Sponsorships {
		spCopy := sp
		if sp.EndsAt != nil {
			t := *sp.EndsAt
			spCopy.EndsAt = &t
		}
		if sp.Policy.DeboostUntil != nil {
			t := *sp.Policy.DeboostUntil
			spCopy.Policy.DeboostUntil = &t
		}
		venueCopy.Sponsorships[i] = spCopy
	}

	return &venueCopy
}
