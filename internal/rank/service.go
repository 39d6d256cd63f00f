// Package rank orchestrates the ranking pipeline: one repository read
// through the eligibility filter, quality scoring, and sponsored merging,
// producing ordered RankedPlace projections.
package rank

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/accessmate/accessrank/internal/eligibility"
	"github.com/accessmate/accessrank/internal/place"
	"github.com/accessmate/accessrank/internal/scoring"
	"github.com/accessmate/accessrank/internal/sponsorship"
)

// tracerName identifies this package's tracer.
const tracerName = "github.com/accessmate/accessrank/internal/rank"

// Request describes one ranking request.
type Request struct {
	Scope                eligibility.Scope
	Category             place.Category
	AccessibilityFilters []string
	HideSponsored        bool
	Limit                int
}

// RankedPlace is the read-only projection returned per result. It combines
// a venue with its derived verification tier, computed quality score,
// sponsorship status, and disclosure text. Created fresh per request, never
// persisted.
type RankedPlace struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    place.Category `json:"category"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	Address     place.Address  `json:"address"`

	Accessibility place.AccessibilityProfile `json:"accessibility"`
	Amenities     []string                   `json:"amenities,omitempty"`
	AcceptsNDIS   bool                       `json:"accepts_ndis"`
	Verified      bool                       `json:"verified"`
	LogoURL       string                     `json:"logo_url,omitempty"`

	QualityScore     int        `json:"quality_score"`
	Sponsored        bool       `json:"sponsored"`
	VerificationTier string     `json:"verification_tier,omitempty"`
	SponsorshipTier  string     `json:"sponsorship_tier,omitempty"`
	Disclosure       string     `json:"disclosure,omitempty"`
	Evidence         []string   `json:"evidence,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

// Service runs the ranking pipeline. Each invocation is independent and
// stateless; concurrent requests need no coordination. The only I/O is the
// eligibility filter's single repository read, which receives the request
// context for cancellation.
type Service struct {
	filter  *eligibility.Filter
	ranker  *sponsorship.Ranker
	weights *scoring.Weights
	metrics *Metrics
	now     func() time.Time // injectable for deterministic tests
}

// NewService creates a ranking service. A nil weights uses the scoring
// defaults; a nil metrics disables metric recording.
func NewService(filter *eligibility.Filter, ranker *sponsorship.Ranker, weights *scoring.Weights, metrics *Metrics) *Service {
	if weights == nil {
		weights = scoring.DefaultWeights()
	}
	return &Service{
		filter:  filter,
		ranker:  ranker,
		weights: weights,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to pin "now" so
// scoring and sponsorship windows are reproducible.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rank executes the read-then-compute pipeline and returns the ordered
// result list. All-or-nothing: a repository failure fails the whole request.
func (s *Service) Rank(ctx context.Context, req Request) ([]RankedPlace, error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rank.Rank",
		trace.WithAttributes(
			attribute.String("category", string(req.Category)),
			attribute.Bool("hide_sponsored", req.HideSponsored),
		))
	defer span.End()

	venues, err := s.filter.Apply(ctx, eligibility.Query{
		Scope:                req.Scope,
		Category:             req.Category,
		AccessibilityFilters: req.AccessibilityFilters,
		Limit:                req.Limit,
	})
	if err != nil {
		s.metrics.IncErrors()
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	candidates := make([]sponsorship.Candidate, len(venues))
	for i, v := range venues {
		tier := place.TierNone
		if best := v.BestValidVerification(now); best != nil {
			tier = best.Tier
		}
		candidates[i] = sponsorship.Candidate{
			Venue:            v,
			QualityScore:     scoring.Score(v, now, s.weights),
			VerificationTier: tier,
			Sponsorship:      v.HighestActiveSponsorship(now),
		}
	}

	placements := s.ranker.Rank(candidates, req.HideSponsored)

	results := make([]RankedPlace, len(placements))
	for i, p := range placements {
		results[i] = s.project(p, now)
	}

	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("results", len(results)),
	)
	s.metrics.IncRequests()
	s.metrics.ObserveCandidates(float64(len(candidates)))
	s.metrics.ObserveDuration(time.Since(start).Seconds())
	return results, nil
}

// project builds the RankedPlace view of one placement.
func (s *Service) project(p sponsorship.Placement, now time.Time) RankedPlace {
	v := p.Venue
	rp := RankedPlace{
		ID:            v.ID,
		Name:          v.Name,
		Description:   v.Description,
		Category:      v.Category,
		Lat:           v.Lat,
		Lng:           v.Lng,
		Address:       v.Address,
		Accessibility: v.Accessibility,
		Amenities:     v.Amenities,
		AcceptsNDIS:   v.AcceptsNDIS,
		Verified:      v.Verified,
		LogoURL:       v.LogoURL,
		QualityScore:  p.QualityScore,
		Sponsored:     p.Sponsored,
		Disclosure:    p.Disclosure,
	}

	if p.VerificationTier != place.TierNone {
		rp.VerificationTier = p.VerificationTier.String()
	}
	if p.Sponsored && p.Sponsorship != nil {
		rp.SponsorshipTier = p.Sponsorship.Tier.String()
	}

	// The latest valid record supplies freshness and evidence for display;
	// fall back to the venue's own verified-at date.
	if latest := v.LatestValidVerification(now); latest != nil {
		rp.Evidence = latest.Evidence
		t := latest.VerifiedAt
		rp.VerifiedAt = &t
	} else if v.VerifiedAt != nil {
		t := *v.VerifiedAt
		rp.VerifiedAt = &t
	}
	return rp
}
