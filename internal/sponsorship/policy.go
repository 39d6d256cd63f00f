// Package sponsorship ranks scored venue candidates into a merged organic
// plus sponsored result list under strict promotion policy bounds, with
// disclosure metadata for every paid placement.
package sponsorship

import (
	"fmt"

	"github.com/accessmate/accessrank/internal/place"
)

// Policy defaults.
const (
	DefaultMaxSponsoredPerViewport = 3
	DefaultMaxSponsoredPerCategory = 2
	DefaultQualityFloor            = 30
)

// Policy holds the promotion policy bounds consumed by the ranker.
// It is injected at construction and validated once, never read from
// ambient state, so tests can exercise varied policy values.
type Policy struct {
	// MaxSponsoredPerViewport caps total sponsored results per request.
	MaxSponsoredPerViewport int

	// MaxSponsoredPerCategory caps sponsored results per category within
	// one request.
	MaxSponsoredPerCategory int

	// QualityFloor is the quality score below which a venue is never
	// eligible for sponsored promotion. A score exactly at the floor is
	// eligible.
	QualityFloor int

	// BoostBounds caps the conceptual ranking lift each sponsorship tier may
	// apply. Informational in the current merge algorithm, which appends
	// sponsored items after organic results rather than interleaving.
	BoostBounds map[place.SponsorshipTier]int

	// MinVerification maps each sponsorship tier to the minimum verification
	// tier a venue must hold for that sponsorship to promote it.
	MinVerification map[place.SponsorshipTier]place.VerificationTier

	// Deduplicate removes a venue's organic entry when it is admitted to the
	// sponsored slate, so it appears once. When false (the default), a venue
	// qualifying both ways appears twice: once organically and once
	// sponsored.
	Deduplicate bool
}

// sponsorshipTiers lists every tier a policy table must cover.
var sponsorshipTiers = []place.SponsorshipTier{
	place.SponsorshipCommunitySupporter,
	place.SponsorshipFeaturedVenue,
	place.SponsorshipAccessibilityLeader,
}

// DefaultPolicy returns the default promotion policy: at most 3 sponsored
// results per viewport, 2 per category, quality floor of 30, and the top
// sponsorship tier requiring at least Silver verification.
func DefaultPolicy() Policy {
	return Policy{
		MaxSponsoredPerViewport: DefaultMaxSponsoredPerViewport,
		MaxSponsoredPerCategory: DefaultMaxSponsoredPerCategory,
		QualityFloor:            DefaultQualityFloor,
		BoostBounds: map[place.SponsorshipTier]int{
			place.SponsorshipCommunitySupporter:  1,
			place.SponsorshipFeaturedVenue:       3,
			place.SponsorshipAccessibilityLeader: 5,
		},
		MinVerification: map[place.SponsorshipTier]place.VerificationTier{
			place.SponsorshipCommunitySupporter:  place.TierNone,
			place.SponsorshipFeaturedVenue:       place.TierBronze,
			place.SponsorshipAccessibilityLeader: place.TierSilver,
		},
	}
}

// Validate checks that the policy values are usable. It is called once at
// ranker construction so configuration errors fail loudly at startup rather
// than per-request.
func (p Policy) Validate() error {
	if p.MaxSponsoredPerViewport < 0 {
		return fmt.Errorf("MaxSponsoredPerViewport must be >= 0 (got %d)", p.MaxSponsoredPerViewport)
	}
	if p.MaxSponsoredPerCategory < 0 {
		return fmt.Errorf("MaxSponsoredPerCategory must be >= 0 (got %d)", p.MaxSponsoredPerCategory)
	}
	if p.QualityFloor < 0 || p.QualityFloor > 100 {
		return fmt.Errorf("QualityFloor must be between 0 and 100 (got %d)", p.QualityFloor)
	}
	for _, tier := range sponsorshipTiers {
		bound, ok := p.BoostBounds[tier]
		if !ok {
			return fmt.Errorf("BoostBounds missing entry for tier %q", tier)
		}
		if bound < 0 {
			return fmt.Errorf("BoostBounds for tier %q must be >= 0 (got %d)", tier, bound)
		}
		if _, ok := p.MinVerification[tier]; !ok {
			return fmt.Errorf("MinVerification missing entry for tier %q", tier)
		}
	}
	return nil
}
