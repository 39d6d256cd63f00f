// Package scoring computes deterministic 0-100 quality scores for venues
// from weighted accessibility, verification, community, freshness, and
// category signals, with calibration support for deploy-time weight tuning.
package scoring

import (
	"math"
	"time"

	"github.com/accessmate/accessrank/internal/place"
)

// MaxScore is the upper bound of the quality score scale.
const MaxScore = 100

// Score computes the quality score for a venue at the given time.
//
// Each signal is normalized to [0, 1] before weighting; the weighted sum is
// scaled to [0, 100], clamped, and rounded to the nearest integer. The
// function is pure: identical inputs and an identical now always produce the
// same score, which keeps ranking stable and testable.
//
// Parameters:
//   - v: the venue to score
//   - now: the reference time for verification validity and freshness
//   - weights: the calibrated weight configuration (nil uses defaults)
//
// Returns an integer score in [0, 100].
func Score(v *place.Venue, now time.Time, weights *Weights) int {
	if weights == nil {
		weights = DefaultWeights()
	}

	best := v.BestValidVerification(now)
	latest := v.LatestValidVerification(now)

	sum := AccessibilitySignal(v)*weights.Accessibility +
		VerificationSignal(v, best)*weights.Verification +
		CommunitySignal(v)*weights.Community +
		FreshnessSignal(v, latest, now)*weights.Freshness +
		CategorySignal(v)*weights.Category

	raw := sum * MaxScore
	if raw < 0 {
		raw = 0
	}
	if raw > MaxScore {
		raw = MaxScore
	}
	return int(math.Round(raw))
}

// Breakdown holds the per-signal contributions of a score, each already
// scaled to score points. Used for debugging and admin display.
type Breakdown struct {
	Accessibility float64 `json:"accessibility"`
	Verification  float64 `json:"verification"`
	Community     float64 `json:"community"`
	Freshness     float64 `json:"freshness"`
	Category      float64 `json:"category"`
	Total         int     `json:"total"`
}

// ScoreBreakdown computes the quality score along with its per-signal
// contributions. The Total field always equals Score for the same inputs.
func ScoreBreakdown(v *place.Venue, now time.Time, weights *Weights) Breakdown {
	if weights == nil {
		weights = DefaultWeights()
	}

	best := v.BestValidVerification(now)
	latest := v.LatestValidVerification(now)

	b := Breakdown{
		Accessibility: AccessibilitySignal(v) * weights.Accessibility * MaxScore,
		Verification:  VerificationSignal(v, best) * weights.Verification * MaxScore,
		Community:     CommunitySignal(v) * weights.Community * MaxScore,
		Freshness:     FreshnessSignal(v, latest, now) * weights.Freshness * MaxScore,
		Category:      CategorySignal(v) * weights.Category * MaxScore,
	}
	b.Total = Score(v, now, weights)
	return b
}
