// Package sponsorship ranks scored venue candidates into a merged organic
// plus sponsored result list under strict promotion policy bounds, with
// disclosure metadata for every paid placement.
package sponsorship

import (
	"fmt"
	"sort"

	"github.com/accessmate/accessrank/internal/place"
)

// Candidate is a scored, eligibility-filtered venue entering the ranker.
// Sponsorship is the venue's highest-priority currently-active sponsorship,
// or nil if it has none.
type Candidate struct {
	Venue            *place.Venue
	QualityScore     int
	VerificationTier place.VerificationTier
	Sponsorship      *place.Sponsorship
}

// Placement is one entry in the final merged result list.
type Placement struct {
	Candidate

	// Sponsored marks paid placements. Sponsored entries always carry
	// non-empty Disclosure text.
	Sponsored bool

	// Disclosure is the user-facing transparency text for sponsored entries,
	// empty for organic entries.
	Disclosure string
}

// Ranker merges organic and sponsored placements under a validated policy.
// Rank is pure and safe for concurrent use.
type Ranker struct {
	policy  Policy
	metrics *Metrics
}

// NewRanker creates a Ranker with the given policy. The policy is validated
// here so misconfiguration fails at startup. A nil metrics disables metric
// recording.
func NewRanker(policy Policy, metrics *Metrics) (*Ranker, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sponsorship policy: %w", err)
	}
	return &Ranker{policy: policy, metrics: metrics}, nil
}

// Policy returns a copy of the ranker's policy.
func (r *Ranker) Policy() Policy {
	return r.policy
}

// Rank produces the final ordered result list.
//
// The organic list is all candidates sorted by quality score descending with
// venue ID as the deterministic tie-break. Sponsored placements never
// displace or reorder organic results: the admitted sponsored slate is
// appended after the full organic list, each entry labeled and carrying
// disclosure text.
//
// When hideSponsored is true, candidates holding an active sponsorship are
// removed entirely and the organic list is returned as-is.
func (r *Ranker) Rank(candidates []Candidate, hideSponsored bool) []Placement {
	if hideSponsored {
		organic := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.Sponsorship == nil {
				organic = append(organic, c)
			}
		}
		return asOrganicPlacements(sortOrganic(organic))
	}

	slate := r.sponsoredSlate(candidates)

	organic := candidates
	if r.policy.Deduplicate && len(slate) > 0 {
		admitted := make(map[string]bool, len(slate))
		for _, c := range slate {
			admitted[c.Venue.ID] = true
		}
		kept := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			if !admitted[c.Venue.ID] {
				kept = append(kept, c)
			}
		}
		organic = kept
	}

	result := asOrganicPlacements(sortOrganic(organic))
	for _, c := range slate {
		result = append(result, Placement{
			Candidate:  c,
			Sponsored:  true,
			Disclosure: Disclosure(c.Sponsorship.Tier),
		})
	}
	return result
}

// sponsoredSlate selects and caps the sponsored placements.
//
// Pool gating: a candidate enters the pool only with an active sponsorship,
// a quality score at or above the floor, and a verification tier satisfying
// the minimum for its sponsorship tier. Excluded venues still rank
// organically on their own merit.
//
// Cap walk: the pool is sorted by sponsorship tier descending then quality
// score descending (venue ID tie-break); candidates that would exceed only
// their category cap are skipped while the walk continues, and the walk
// stops once the viewport cap is reached.
func (r *Ranker) sponsoredSlate(candidates []Candidate) []Candidate {
	pool := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Sponsorship == nil {
			continue
		}
		if c.QualityScore < r.policy.QualityFloor {
			r.metrics.IncSkipped(SkipBelowFloor)
			continue
		}
		if c.VerificationTier < r.policy.MinVerification[c.Sponsorship.Tier] {
			r.metrics.IncSkipped(SkipVerificationTier)
			continue
		}
		pool = append(pool, c)
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Sponsorship.Tier != pool[j].Sponsorship.Tier {
			return pool[i].Sponsorship.Tier > pool[j].Sponsorship.Tier
		}
		if pool[i].QualityScore != pool[j].QualityScore {
			return pool[i].QualityScore > pool[j].QualityScore
		}
		return pool[i].Venue.ID < pool[j].Venue.ID
	})

	slate := make([]Candidate, 0, r.policy.MaxSponsoredPerViewport)
	perCategory := make(map[place.Category]int)
	for _, c := range pool {
		if len(slate) >= r.policy.MaxSponsoredPerViewport {
			r.metrics.IncSkipped(SkipViewportCap)
			break
		}
		if perCategory[c.Venue.Category] >= r.policy.MaxSponsoredPerCategory {
			// Category is full; later candidates from other categories may
			// still be admitted.
			r.metrics.IncSkipped(SkipCategoryCap)
			continue
		}
		slate = append(slate, c)
		perCategory[c.Venue.Category]++
		r.metrics.IncAdmitted()
	}
	return slate
}

// sortOrganic sorts candidates by quality score descending, with venue ID
// ascending as the deterministic tie-break.
func sortOrganic(candidates []Candidate) []Candidate {
	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].QualityScore != sorted[j].QualityScore {
			return sorted[i].QualityScore > sorted[j].QualityScore
		}
		return sorted[i].Venue.ID < sorted[j].Venue.ID
	})
	return sorted
}

// asOrganicPlacements wraps candidates as unsponsored placements.
func asOrganicPlacements(candidates []Candidate) []Placement {
	placements := make([]Placement, len(candidates))
	for i, c := range candidates {
		placements[i] = Placement{Candidate: c}
	}
	return placements
}

// Disclosure returns the user-facing transparency text for a sponsored
// placement. It names the sponsorship tier in human-readable form and states
// that the placement still met the caller's accessibility filters. Every
// sponsored entry in the output must carry this text.
func Disclosure(tier place.SponsorshipTier) string {
	return fmt.Sprintf("Sponsored listing (%s). This venue matched your search filters and meets our quality standards.", tier.DisplayName())
}
