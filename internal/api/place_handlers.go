package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/accessmate/accessrank/internal/evidence"
	"github.com/accessmate/accessrank/internal/place"
)

// PlaceHandlers holds dependencies for place detail HTTP handlers.
type PlaceHandlers struct {
	repo     place.VenueRepository
	resolver *evidence.Resolver // optional; nil disables evidence URLs
}

// NewPlaceHandlers creates a new PlaceHandlers instance.
// A nil resolver leaves evidence URLs unresolved in detail responses.
func NewPlaceHandlers(repo place.VenueRepository, resolver *evidence.Resolver) *PlaceHandlers {
	return &PlaceHandlers{
		repo:     repo,
		resolver: resolver,
	}
}

// VerificationView is the per-record verification detail in a place response.
type VerificationView struct {
	Tier       string               `json:"tier"`
	VerifiedAt time.Time            `json:"verified_at"`
	ExpiresAt  *time.Time           `json:"expires_at,omitempty"`
	Evidence   []evidence.SignedURL `json:"evidence,omitempty"`
}

// PlaceResponse represents the response for a place detail request.
type PlaceResponse struct {
	Place         *place.Venue       `json:"place"`
	Verifications []VerificationView `json:"verifications"`
}

// GetPlace handles GET /places/{id} - returns one venue with its valid
// verification records and signed evidence URLs.
func (h *PlaceHandlers) GetPlace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/places/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Place ID is required")
		return
	}

	venue, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, place.ErrVenueNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Place not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to load place", "error", err, "place_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load place")
		return
	}

	now := time.Now()
	views := make([]VerificationView, 0, len(venue.Verifications))
	for _, rec := range venue.Verifications {
		if !rec.ValidAt(now) {
			continue
		}
		view := VerificationView{
			Tier:       rec.Tier.String(),
			VerifiedAt: rec.VerifiedAt,
			ExpiresAt:  rec.ExpiresAt,
		}
		if h.resolver != nil && len(rec.Evidence) > 0 {
			urls, err := h.resolver.ResolveAll(r.Context(), rec.Evidence)
			if err != nil {
				slog.WarnContext(r.Context(), "failed to resolve evidence URLs", "error", err, "place_id", id)
			} else {
				view.Evidence = urls
			}
		}
		views = append(views, view)
	}

	response := PlaceResponse{
		Place:         venue,
		Verifications: views,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode place response", "error", err)
	}
}
