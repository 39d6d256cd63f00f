package rank

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/accessmate/accessrank/internal/eligibility"
	"github.com/accessmate/accessrank/internal/geo"
	"github.com/accessmate/accessrank/internal/place"
	"github.com/accessmate/accessrank/internal/sponsorship"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func floatPtr(f float64) *float64 {
	return &f
}

func testScope() eligibility.Scope {
	return eligibility.Scope{Bounds: &geo.Bounds{MinLat: -34.0, MaxLat: -33.0, MinLng: 151.0, MaxLng: 152.0}}
}

func newTestService(t *testing.T, repo place.VenueRepository, mutate func(*sponsorship.Policy)) *Service {
	t.Helper()
	policy := sponsorship.DefaultPolicy()
	if mutate != nil {
		mutate(&policy)
	}
	ranker, err := sponsorship.NewRanker(policy, nil)
	if err != nil {
		t.Fatalf("NewRanker() error = %v", err)
	}
	return NewService(eligibility.NewFilter(repo), ranker, nil, nil).
		WithClock(func() time.Time { return testNow })
}

// flagshipVenue scores 96: accessibility 1.0 (0.9 confidence + wheelchair
// boost), gold verification, community 0.8, fully fresh, full category.
func flagshipVenue() *place.Venue {
	return &place.Venue{
		ID:       "flagship",
		Name:     "Ramp Up Espresso",
		Category: place.CategoryCafe,
		Status:   place.StatusActive,
		Lat:      -33.87, Lng: 151.21,
		AccessibilityConfidence: floatPtr(0.9),
		Amenities:               []string{place.AmenityWheelchair},
		CommunityScore:          floatPtr(0.8),
		Accessibility:           place.AccessibilityProfile{WheelchairAccess: true},
		Verifications: []place.VerificationRecord{
			{ID: "ver-1", VenueID: "flagship", Tier: place.TierGold, VerifiedAt: testNow, Evidence: []string{"evidence/flagship/ramp.jpg"}},
		},
		Sponsorships: []place.Sponsorship{
			{ID: "sp-1", VenueID: "flagship", Tier: place.SponsorshipAccessibilityLeader, Status: place.SponsorshipStatusActive, StartsAt: testNow.Add(-24 * time.Hour)},
		},
	}
}

func TestService_Rank_DoubleListing(t *testing.T) {
	repo := place.NewInMemoryVenueRepository()
	repo.Put(flagshipVenue())
	repo.Put(&place.Venue{
		ID: "modest", Name: "Modest Cafe", Category: place.CategoryCafe,
		Status: place.StatusActive, Lat: -33.88, Lng: 151.20,
	})

	svc := newTestService(t, repo, nil)
	results, err := svc.Rank(context.Background(), Request{Scope: testScope()})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	// The flagship qualifies organically and for the sponsored slate, so it
	// appears twice: once organic up top, once sponsored at the end.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	first := results[0]
	if first.ID != "flagship" || first.Sponsored {
		t.Errorf("first result should be the organic flagship entry, got %+v", first)
	}
	if first.QualityScore != 96 {
		t.Errorf("flagship quality score = %d, want 96", first.QualityScore)
	}
	if first.VerificationTier != "gold" {
		t.Errorf("VerificationTier = %q, want gold", first.VerificationTier)
	}
	if len(first.Evidence) != 1 || first.Evidence[0] != "evidence/flagship/ramp.jpg" {
		t.Errorf("evidence not projected: %v", first.Evidence)
	}
	if first.VerifiedAt == nil || !first.VerifiedAt.Equal(testNow) {
		t.Errorf("VerifiedAt = %v, want %v", first.VerifiedAt, testNow)
	}

	last := results[2]
	if last.ID != "flagship" || !last.Sponsored {
		t.Errorf("last result should be the sponsored flagship entry, got %+v", last)
	}
	if last.SponsorshipTier != "accessibility_leader" {
		t.Errorf("SponsorshipTier = %q, want accessibility_leader", last.SponsorshipTier)
	}
	if !strings.Contains(last.Disclosure, "Accessibility Leader") {
		t.Errorf("disclosure must name the tier: %q", last.Disclosure)
	}
}

func TestService_Rank_Deterministic(t *testing.T) {
	repo := place.NewInMemoryVenueRepository()
	repo.Put(flagshipVenue())
	repo.Put(&place.Venue{
		ID: "second", Name: "Second Cafe", Category: place.CategoryCafe,
		Status: place.StatusActive, Lat: -33.86, Lng: 151.22,
		AccessibilityConfidence: floatPtr(0.5),
	})

	svc := newTestService(t, repo, nil)

	first, err := svc.Rank(context.Background(), Request{Scope: testScope()})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Rank(context.Background(), Request{Scope: testScope()})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result length changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j].ID != first[j].ID || again[j].QualityScore != first[j].QualityScore {
				t.Fatalf("run %d result %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestService_Rank_HideSponsored(t *testing.T) {
	repo := place.NewInMemoryVenueRepository()
	repo.Put(flagshipVenue())
	repo.Put(&place.Venue{
		ID: "plain", Name: "Plain Cafe", Category: place.CategoryCafe,
		Status: place.StatusActive, Lat: -33.88, Lng: 151.20,
	})

	svc := newTestService(t, repo, nil)
	results, err := svc.Rank(context.Background(), Request{Scope: testScope(), HideSponsored: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 1 || results[0].ID != "plain" {
		t.Fatalf("expected only the unsponsored venue, got %+v", results)
	}
}

func TestService_Rank_ExpiredSponsorshipRanksOrganically(t *testing.T) {
	v := flagshipVenue()
	v.Sponsorships[0].EndsAt = timePtr(testNow.Add(-time.Hour))

	repo := place.NewInMemoryVenueRepository()
	repo.Put(v)

	svc := newTestService(t, repo, nil)
	results, err := svc.Rank(context.Background(), Request{Scope: testScope()})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 1 || results[0].Sponsored {
		t.Errorf("expired sponsorship must yield a single organic entry, got %+v", results)
	}
}

func TestService_Rank_DeboostedSponsorshipRanksOrganically(t *testing.T) {
	v := flagshipVenue()
	v.Sponsorships[0].Policy = place.BoostPolicy{
		DeboostUntil:  timePtr(testNow.Add(24 * time.Hour)),
		DeboostReason: "verification dispute",
	}

	repo := place.NewInMemoryVenueRepository()
	repo.Put(v)

	svc := newTestService(t, repo, nil)
	results, err := svc.Rank(context.Background(), Request{Scope: testScope()})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 1 || results[0].Sponsored {
		t.Errorf("de-boosted sponsorship must yield a single organic entry, got %+v", results)
	}
}

func TestService_Rank_MissingScope(t *testing.T) {
	repo := place.NewInMemoryVenueRepository()
	svc := newTestService(t, repo, nil)

	_, err := svc.Rank(context.Background(), Request{})
	if !errors.Is(err, eligibility.ErrMissingScope) {
		t.Errorf("expected ErrMissingScope, got %v", err)
	}
}

func TestService_Rank_Deduplicate(t *testing.T) {
	repo := place.NewInMemoryVenueRepository()
	repo.Put(flagshipVenue())

	svc := newTestService(t, repo, func(p *sponsorship.Policy) { p.Deduplicate = true })
	results, err := svc.Rank(context.Background(), Request{Scope: testScope()})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 1 || !results[0].Sponsored {
		t.Errorf("dedup must keep only the sponsored entry, got %+v", results)
	}
}
