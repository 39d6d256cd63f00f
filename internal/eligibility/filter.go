// Package eligibility reduces the full venue set to candidates relevant to
// a map viewport or radius search, applying category and
// accessibility-capability filters.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/accessmate/accessrank/internal/geo"
	"github.com/accessmate/accessrank/internal/place"
)

// Filter limits.
const (
	// DefaultLimit is the result count when the caller does not specify one.
	DefaultLimit = 20

	// MaxLimit caps the result count a caller may request.
	MaxLimit = 50

	// overFetchFactor over-fetches from the repository to allow for
	// post-filter attrition before truncating to the requested limit.
	overFetchFactor = 2
)

// Scope errors.
var (
	ErrMissingScope = errors.New("either bounds or center+radius must be provided")
)

// Recognized accessibility-capability filter tokens.
const (
	TokenNDIS       = "ndis"
	TokenWheelchair = "wheelchair"
)

// capabilityPredicates maps recognized filter tokens to venue predicates.
// Unknown tokens are deliberately treated as pass-through, not errors, so
// the filter vocabulary can grow without breaking callers.
var capabilityPredicates = map[string]func(*place.Venue) bool{
	TokenNDIS: func(v *place.Venue) bool {
		return v.AcceptsNDIS
	},
	TokenWheelchair: func(v *place.Venue) bool {
		return v.WheelchairAccessible()
	},
}

// RecognizedToken reports whether the filter token maps to a known
// capability predicate.
func RecognizedToken(token string) bool {
	_, ok := capabilityPredicates[normalizeToken(token)]
	return ok
}

// normalizeToken lowercases and trims a filter token for lookup.
func normalizeToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// Scope is the geographic extent of a search: either an explicit bounding
// box, or a center point plus radius in meters.
type Scope struct {
	Bounds *geo.Bounds

	CenterLat    float64
	CenterLng    float64
	RadiusMeters float64
}

// Resolve converts the scope to a bounding box, validating the input.
// Fails fast when neither bounds nor a radius is provided so a malformed
// request never falls through to a whole-table scan.
func (s Scope) Resolve() (geo.Bounds, error) {
	if s.Bounds != nil {
		if err := s.Bounds.Validate(); err != nil {
			return geo.Bounds{}, fmt.Errorf("invalid bounds: %w", err)
		}
		return *s.Bounds, nil
	}
	if s.RadiusMeters > 0 {
		b, err := geo.BoundsFromRadius(s.CenterLat, s.CenterLng, s.RadiusMeters)
		if err != nil {
			return geo.Bounds{}, fmt.Errorf("invalid radius scope: %w", err)
		}
		return b, nil
	}
	return geo.Bounds{}, ErrMissingScope
}

// Query describes one eligibility filtering request.
type Query struct {
	Scope    Scope
	Category place.Category // empty means all categories

	// AccessibilityFilters are free-form capability tokens. Recognized
	// tokens restrict results; unknown tokens pass through.
	AccessibilityFilters []string

	Limit int // <= 0 uses DefaultLimit; capped at MaxLimit
}

// effectiveLimit normalizes the requested limit.
func (q Query) effectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	if q.Limit > MaxLimit {
		return MaxLimit
	}
	return q.Limit
}

// Filter selects candidate venues for ranking. It is a pure read: one
// repository query restricted to active venues in the resolved bounds and
// category, followed by in-memory capability filtering and truncation.
type Filter struct {
	repo place.VenueRepository
}

// NewFilter creates a Filter backed by the given repository.
func NewFilter(repo place.VenueRepository) *Filter {
	return &Filter{repo: repo}
}

// Apply runs the eligibility filter and returns at most the requested limit
// of venues. The context is propagated to the single repository read;
// repository failures surface to the caller unretried.
func (f *Filter) Apply(ctx context.Context, q Query) ([]*place.Venue, error) {
	bounds, err := q.Scope.Resolve()
	if err != nil {
		return nil, err
	}

	limit := q.effectiveLimit()
	venues, err := f.repo.SearchActive(ctx, place.SearchQuery{
		Bounds:   bounds,
		Category: q.Category,
		Limit:    limit * overFetchFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("venue search failed: %w", err)
	}

	venues = applyCapabilityFilters(venues, q.AccessibilityFilters)

	if len(venues) > limit {
		venues = venues[:limit]
	}
	return venues, nil
}

// applyCapabilityFilters keeps venues passing every recognized filter token.
func applyCapabilityFilters(venues []*place.Venue, tokens []string) []*place.Venue {
	predicates := make([]func(*place.Venue) bool, 0, len(tokens))
	for _, token := range tokens {
		if pred, ok := capabilityPredicates[normalizeToken(token)]; ok {
			predicates = append(predicates, pred)
		}
	}
	if len(predicates) == 0 {
		return venues
	}

	filtered := venues[:0]
	for _, v := range venues {
		keep := true
		for _, pred := range predicates {
			if !pred(v) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
