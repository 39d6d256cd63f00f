package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/accessmate/accessrank/internal/place"
)

func TestScore_Range(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	venues := []*place.Venue{
		{}, // bare venue, everything defaulted
		{
			AccessibilityConfidence: floatPtr(1.0),
			CommunityScore:          floatPtr(1.0),
			Amenities:               []string{place.AmenityWheelchair},
			Verified:                true,
			VerifiedAt:              timePtr(now),
			Verifications: []place.VerificationRecord{
				{Tier: place.TierGold, VerifiedAt: now},
			},
		},
		{
			AccessibilityConfidence: floatPtr(0.0),
			CommunityScore:          floatPtr(0.0),
		},
	}

	for _, v := range venues {
		score := Score(v, now, nil)
		if score < 0 || score > MaxScore {
			t.Errorf("Score() = %d, must be within [0, %d]", score, MaxScore)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	v := &place.Venue{
		AccessibilityConfidence: floatPtr(0.7),
		CommunityScore:          floatPtr(0.6),
		Verifications: []place.VerificationRecord{
			{Tier: place.TierSilver, VerifiedAt: now.Add(-30 * 24 * time.Hour)},
		},
	}

	first := Score(v, now, nil)
	for i := 0; i < 10; i++ {
		if got := Score(v, now, nil); got != first {
			t.Fatalf("Score() not deterministic: got %d then %d", first, got)
		}
	}
}

func TestScore_Scenarios(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		venue place.Venue
		want  int
	}{
		{
			// accessibility 1.0, gold 1.0, community 0.8, freshness 1.0,
			// category 1.0 -> 0.30 + 0.25 + 0.16 + 0.15 + 0.10 = 0.96
			name: "flagship accessible venue",
			venue: place.Venue{
				AccessibilityConfidence: floatPtr(0.9),
				Amenities:               []string{place.AmenityWheelchair},
				CommunityScore:          floatPtr(0.8),
				Verifications: []place.VerificationRecord{
					{Tier: place.TierGold, VerifiedAt: now},
				},
			},
			want: 96,
		},
		{
			// accessibility 0.3, verification 0, community 0.5 neutral,
			// freshness 0.2 default, category 1.0
			// -> 0.09 + 0 + 0.10 + 0.03 + 0.10 = 0.32
			name:  "bare venue with no data",
			venue: place.Venue{},
			want:  32,
		},
		{
			// accessibility 0.6 profile, verified flag 0.4, community neutral,
			// freshness 0.5 (half-year-old venue date), category 1.0
			// -> 0.18 + 0.10 + 0.10 + 0.075 + 0.10 = 0.555
			name: "profile with legacy verified flag",
			venue: place.Venue{
				Accessibility: place.AccessibilityProfile{StepFreeEntry: true},
				Verified:      true,
				VerifiedAt:    timePtr(now.Add(-182.5 * 24 * time.Hour)),
			},
			want: 56,
		},
		{
			// Expired gold record contributes neither verification nor
			// freshness; venue-level verified-at is also past the window.
			// accessibility 0.3, verification 0.4 flag, community neutral,
			// freshness 0, category 1.0 -> 0.09 + 0.10 + 0.10 + 0 + 0.10
			name: "expired verification falls back to flag",
			venue: place.Venue{
				Verified:   true,
				VerifiedAt: timePtr(now.Add(-400 * 24 * time.Hour)),
				Verifications: []place.VerificationRecord{
					{Tier: place.TierGold, VerifiedAt: now.Add(-400 * 24 * time.Hour), ExpiresAt: timePtr(now.Add(-time.Hour))},
				},
			},
			want: 39,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.venue, now, nil); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_HigherTierScoresHigher(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	base := place.Venue{
		AccessibilityConfidence: floatPtr(0.7),
		CommunityScore:          floatPtr(0.6),
	}

	scoreWithTier := func(tier place.VerificationTier) int {
		v := base
		v.Verifications = []place.VerificationRecord{
			{Tier: tier, VerifiedAt: now.Add(-10 * 24 * time.Hour)},
		}
		return Score(&v, now, nil)
	}

	gold := scoreWithTier(place.TierGold)
	silver := scoreWithTier(place.TierSilver)
	bronze := scoreWithTier(place.TierBronze)

	if !(gold > silver && silver > bronze) {
		t.Errorf("scores must increase with tier: gold=%d silver=%d bronze=%d", gold, silver, bronze)
	}
}

func TestScoreBreakdown(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	v := &place.Venue{
		AccessibilityConfidence: floatPtr(0.9),
		Amenities:               []string{place.AmenityWheelchair},
		CommunityScore:          floatPtr(0.8),
		Verifications: []place.VerificationRecord{
			{Tier: place.TierGold, VerifiedAt: now},
		},
	}

	b := ScoreBreakdown(v, now, nil)
	if b.Total != Score(v, now, nil) {
		t.Errorf("Breakdown.Total = %d, want %d", b.Total, Score(v, now, nil))
	}

	sum := b.Accessibility + b.Verification + b.Community + b.Freshness + b.Category
	if math.Abs(sum-float64(b.Total)) > 0.5 {
		t.Errorf("component sum %v deviates from total %d by more than rounding", sum, b.Total)
	}
}
