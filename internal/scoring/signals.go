// Package scoring computes deterministic 0-100 quality scores for venues
// from weighted accessibility, verification, community, freshness, and
// category signals, with calibration support for deploy-time weight tuning.
package scoring

import (
	"math"
	"time"

	"github.com/accessmate/accessrank/internal/place"
)

// Signal defaults applied when a venue lacks the underlying data.
const (
	// accessibilityWithProfile is the base value when no confidence score
	// exists but the venue carries a non-empty accessibility profile.
	accessibilityWithProfile = 0.6

	// accessibilityBare is the base value when neither confidence nor a
	// profile exists.
	accessibilityBare = 0.3

	// wheelchairBoost is added when the venue has a wheelchair amenity tag.
	wheelchairBoost = 0.2

	// verifiedFlagOnly is the verification value for a venue with a generic
	// verified flag but no tiered record.
	verifiedFlagOnly = 0.4

	// communityNeutral is the community value when no community score exists.
	communityNeutral = 0.5

	// freshnessDefault is the freshness value when no verification date
	// exists at all (not-fresh default).
	freshnessDefault = 0.2

	// freshnessWindowDays is the linear decay window: a verification this
	// many days old contributes zero freshness.
	freshnessWindowDays = 365.0
)

// AccessibilitySignal computes the accessibility component in [0, 1].
// Base value is the venue's confidence score if present, 0.6 if it carries
// a non-empty accessibility profile, else 0.3. A wheelchair amenity tag
// boosts the value by 0.2, capped at 1.0.
func AccessibilitySignal(v *place.Venue) float64 {
	var base float64
	switch {
	case v.AccessibilityConfidence != nil:
		base = clamp01(*v.AccessibilityConfidence)
	case !v.Accessibility.IsEmpty():
		base = accessibilityWithProfile
	default:
		base = accessibilityBare
	}

	if v.HasAmenity(place.AmenityWheelchair) {
		base += wheelchairBoost
	}
	return clamp01(base)
}

// VerificationSignal computes the verification component in [0, 1] from the
// venue's best valid verification record. A venue with only a generic
// verified flag scores 0.4; no verification at all scores 0.
func VerificationSignal(v *place.Venue, best *place.VerificationRecord) float64 {
	if best != nil {
		switch best.Tier {
		case place.TierGold:
			return 1.0
		case place.TierSilver:
			return 0.8
		case place.TierBronze:
			return 0.6
		}
	}
	if v.Verified {
		return verifiedFlagOnly
	}
	return 0.0
}

// CommunitySignal computes the community component in [0, 1].
// Returns the venue's community score clamped to [0, 1], or a neutral 0.5
// default when absent.
func CommunitySignal(v *place.Venue) float64 {
	if v.CommunityScore == nil {
		return communityNeutral
	}
	return clamp01(*v.CommunityScore)
}

// FreshnessSignal computes the freshness component in [0, 1] with linear
// decay to zero over one year, floored at zero.
//
// The reference date is the latest valid verification record's date if
// present, else the venue's own verified-at date, else the signal falls back
// to a not-fresh default of 0.2.
func FreshnessSignal(v *place.Venue, latest *place.VerificationRecord, now time.Time) float64 {
	var ref time.Time
	switch {
	case latest != nil:
		ref = latest.VerifiedAt
	case v.VerifiedAt != nil:
		ref = *v.VerifiedAt
	default:
		return freshnessDefault
	}

	days := now.Sub(ref).Hours() / 24
	if days < 0 {
		days = 0 // future-dated records count as fresh today
	}
	return math.Max(0, 1-days/freshnessWindowDays)
}

// CategorySignal computes the category relevance component in [0, 1].
// The current design applies no category-specific penalty, so every venue
// receives the full contribution. The signal exists so weights stay stable
// when category relevance becomes data-driven.
func CategorySignal(v *place.Venue) float64 {
	return 1.0
}

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
