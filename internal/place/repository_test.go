package place

import (
	"context"
	"errors"
	"testing"

	"github.com/accessmate/accessrank/internal/geo"
)

func seedRepo(t *testing.T) *InMemoryVenueRepository {
	t.Helper()
	repo := NewInMemoryVenueRepository()
	repo.Put(&Venue{ID: "cafe-1", Name: "Ramp Up Espresso", Category: CategoryCafe, Status: StatusActive, Lat: -33.87, Lng: 151.21})
	repo.Put(&Venue{ID: "cafe-2", Name: "Level Ground", Category: CategoryCafe, Status: StatusActive, Lat: -33.88, Lng: 151.20})
	repo.Put(&Venue{ID: "gym-1", Name: "Adaptive Fitness", Category: CategoryRecreation, Status: StatusActive, Lat: -33.86, Lng: 151.22})
	repo.Put(&Venue{ID: "cafe-closed", Name: "Shut Shop", Category: CategoryCafe, Status: StatusInactive, Lat: -33.87, Lng: 151.21})
	repo.Put(&Venue{ID: "cafe-far", Name: "Outback Beans", Category: CategoryCafe, Status: StatusActive, Lat: -31.95, Lng: 115.86})
	return repo
}

func sydneyBounds() geo.Bounds {
	return geo.Bounds{MinLat: -34.0, MaxLat: -33.0, MinLng: 151.0, MaxLng: 152.0}
}

func TestInMemoryVenueRepository_SearchActive(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)

	t.Run("bounds exclude distant and inactive venues", func(t *testing.T) {
		venues, err := repo.SearchActive(ctx, SearchQuery{Bounds: sydneyBounds()})
		if err != nil {
			t.Fatalf("SearchActive() error = %v", err)
		}
		if len(venues) != 3 {
			t.Fatalf("expected 3 venues, got %d", len(venues))
		}
		// Results are ordered by ID for deterministic ranking input.
		want := []string{"cafe-1", "cafe-2", "gym-1"}
		for i, id := range want {
			if venues[i].ID != id {
				t.Errorf("venues[%d].ID = %q, want %q", i, venues[i].ID, id)
			}
		}
	})

	t.Run("category restricts results", func(t *testing.T) {
		venues, err := repo.SearchActive(ctx, SearchQuery{Bounds: sydneyBounds(), Category: CategoryRecreation})
		if err != nil {
			t.Fatalf("SearchActive() error = %v", err)
		}
		if len(venues) != 1 || venues[0].ID != "gym-1" {
			t.Errorf("expected only gym-1, got %v", venues)
		}
	})

	t.Run("limit truncates after sorting", func(t *testing.T) {
		venues, err := repo.SearchActive(ctx, SearchQuery{Bounds: sydneyBounds(), Limit: 2})
		if err != nil {
			t.Fatalf("SearchActive() error = %v", err)
		}
		if len(venues) != 2 || venues[0].ID != "cafe-1" || venues[1].ID != "cafe-2" {
			t.Errorf("expected first two IDs in order, got %v", venues)
		}
	})

	t.Run("results are deep copies", func(t *testing.T) {
		venues, err := repo.SearchActive(ctx, SearchQuery{Bounds: sydneyBounds(), Limit: 1})
		if err != nil {
			t.Fatalf("SearchActive() error = %v", err)
		}
		venues[0].Name = "mutated"

		again, err := repo.SearchActive(ctx, SearchQuery{Bounds: sydneyBounds(), Limit: 1})
		if err != nil {
			t.Fatalf("SearchActive() error = %v", err)
		}
		if again[0].Name == "mutated" {
			t.Error("mutating a result leaked into the repository")
		}
	})

	t.Run("cancelled context returns error", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := repo.SearchActive(cancelled, SearchQuery{Bounds: sydneyBounds()}); err == nil {
			t.Error("expected context error, got nil")
		}
	})
}

func TestInMemoryVenueRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)

	t.Run("found", func(t *testing.T) {
		v, err := repo.GetByID(ctx, "gym-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if v.Name != "Adaptive Fitness" {
			t.Errorf("Name = %q, want %q", v.Name, "Adaptive Fitness")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		if !errors.Is(err, ErrVenueNotFound) {
			t.Errorf("expected ErrVenueNotFound, got %v", err)
		}
	})

	t.Run("put replaces existing", func(t *testing.T) {
		repo.Put(&Venue{ID: "gym-1", Name: "Renamed Gym", Category: CategoryRecreation, Status: StatusActive, Lat: -33.86, Lng: 151.22})
		v, err := repo.GetByID(ctx, "gym-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if v.Name != "Renamed Gym" {
			t.Errorf("Name = %q, want %q", v.Name, "Renamed Gym")
		}
	})
}
