package eligibility

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/accessmate/accessrank/internal/geo"
	"github.com/accessmate/accessrank/internal/place"
)

func testBounds() *geo.Bounds {
	return &geo.Bounds{MinLat: -34.0, MaxLat: -33.0, MinLng: 151.0, MaxLng: 152.0}
}

func seedVenues(repo *place.InMemoryVenueRepository) {
	repo.Put(&place.Venue{
		ID: "ndis-wheelchair", Category: place.CategoryCafe, Status: place.StatusActive,
		Lat: -33.5, Lng: 151.5,
		AcceptsNDIS:   true,
		Accessibility: place.AccessibilityProfile{WheelchairAccess: true},
	})
	repo.Put(&place.Venue{
		ID: "ndis-only", Category: place.CategoryCafe, Status: place.StatusActive,
		Lat: -33.5, Lng: 151.5,
		AcceptsNDIS: true,
	})
	repo.Put(&place.Venue{
		ID: "wheelchair-tag", Category: place.CategoryRetail, Status: place.StatusActive,
		Lat: -33.5, Lng: 151.5,
		Amenities: []string{place.AmenityWheelchair},
	})
	repo.Put(&place.Venue{
		ID: "plain", Category: place.CategoryCafe, Status: place.StatusActive,
		Lat: -33.5, Lng: 151.5,
	})
}

func TestScope_Resolve(t *testing.T) {
	t.Run("explicit bounds", func(t *testing.T) {
		b, err := Scope{Bounds: testBounds()}.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if b != *testBounds() {
			t.Errorf("Resolve() = %+v, want %+v", b, *testBounds())
		}
	})

	t.Run("invalid bounds rejected", func(t *testing.T) {
		s := Scope{Bounds: &geo.Bounds{MinLat: 1, MaxLat: 0, MinLng: 0, MaxLng: 1}}
		if _, err := s.Resolve(); err == nil {
			t.Error("expected error for inverted bounds")
		}
	})

	t.Run("center plus radius", func(t *testing.T) {
		b, err := Scope{CenterLat: -33.87, CenterLng: 151.21, RadiusMeters: 5000}.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !b.Contains(-33.87, 151.21) {
			t.Errorf("resolved bounds %+v must contain the center", b)
		}
	})

	t.Run("invalid center rejected", func(t *testing.T) {
		s := Scope{CenterLat: 95, CenterLng: 0, RadiusMeters: 100}
		if _, err := s.Resolve(); err == nil {
			t.Error("expected error for out-of-range latitude")
		}
	})

	t.Run("neither scope fails fast", func(t *testing.T) {
		if _, err := (Scope{}).Resolve(); !errors.Is(err, ErrMissingScope) {
			t.Errorf("expected ErrMissingScope, got %v", err)
		}
	})
}

func TestRecognizedToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"ndis", true},
		{"wheelchair", true},
		{"NDIS", true},
		{"  wheelchair  ", true},
		{"braille", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := RecognizedToken(tt.token); got != tt.want {
				t.Errorf("RecognizedToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	ctx := context.Background()
	repo := place.NewInMemoryVenueRepository()
	seedVenues(repo)
	f := NewFilter(repo)

	baseScope := Scope{Bounds: testBounds()}

	t.Run("no filters returns everything in scope", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 4 {
			t.Errorf("expected 4 venues, got %d", len(venues))
		}
	})

	t.Run("ndis filter", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, AccessibilityFilters: []string{"ndis"}})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 2 {
			t.Fatalf("expected 2 venues, got %d", len(venues))
		}
		for _, v := range venues {
			if !v.AcceptsNDIS {
				t.Errorf("venue %s does not accept NDIS", v.ID)
			}
		}
	})

	t.Run("wheelchair filter matches tag or profile", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, AccessibilityFilters: []string{"wheelchair"}})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 2 {
			t.Fatalf("expected 2 venues, got %d", len(venues))
		}
	})

	t.Run("filters conjoin", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, AccessibilityFilters: []string{"ndis", "wheelchair"}})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 1 || venues[0].ID != "ndis-wheelchair" {
			t.Errorf("expected only ndis-wheelchair, got %v", venues)
		}
	})

	t.Run("unknown tokens pass through", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, AccessibilityFilters: []string{"braille", "hoist"}})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 4 {
			t.Errorf("unknown tokens must not restrict results, got %d venues", len(venues))
		}
	})

	t.Run("tokens are normalized", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, AccessibilityFilters: []string{" NDIS "}})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 2 {
			t.Errorf("expected 2 venues for normalized token, got %d", len(venues))
		}
	})

	t.Run("category restricts", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, Category: place.CategoryRetail})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 1 || venues[0].ID != "wheelchair-tag" {
			t.Errorf("expected only wheelchair-tag, got %v", venues)
		}
	})

	t.Run("missing scope propagates", func(t *testing.T) {
		if _, err := f.Apply(ctx, Query{}); !errors.Is(err, ErrMissingScope) {
			t.Errorf("expected ErrMissingScope, got %v", err)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		venues, err := f.Apply(ctx, Query{Scope: baseScope, Limit: 2})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if len(venues) != 2 {
			t.Errorf("expected 2 venues after truncation, got %d", len(venues))
		}
	})
}

func TestQuery_effectiveLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
		{500, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit=%d", tt.limit), func(t *testing.T) {
			if got := (Query{Limit: tt.limit}).effectiveLimit(); got != tt.want {
				t.Errorf("effectiveLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply_OverFetchCoversAttrition(t *testing.T) {
	ctx := context.Background()
	repo := place.NewInMemoryVenueRepository()
	// 6 venues: 3 NDIS, 3 not, interleaved by ID so the repository's ID-sorted
	// page mixes both kinds.
	for i := 0; i < 6; i++ {
		repo.Put(&place.Venue{
			ID:          fmt.Sprintf("venue-%d", i),
			Category:    place.CategoryCafe,
			Status:      place.StatusActive,
			Lat:         -33.5,
			Lng:         151.5,
			AcceptsNDIS: i%2 == 0,
		})
	}

	f := NewFilter(repo)
	venues, err := f.Apply(ctx, Query{
		Scope:                Scope{Bounds: testBounds()},
		AccessibilityFilters: []string{"ndis"},
		Limit:                3,
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	// The repository page of limit*2=6 holds all venues, so filtering still
	// finds the full 3 NDIS venues.
	if len(venues) != 3 {
		t.Errorf("expected 3 NDIS venues, got %d", len(venues))
	}
}
