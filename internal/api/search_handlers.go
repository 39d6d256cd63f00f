// Package api provides HTTP handlers for the ranking API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/accessmate/accessrank/internal/eligibility"
	"github.com/accessmate/accessrank/internal/geo"
	"github.com/accessmate/accessrank/internal/place"
	"github.com/accessmate/accessrank/internal/rank"
	"github.com/accessmate/accessrank/internal/rankcache"
)

// Ranker runs the ranking pipeline for a search request.
type Ranker interface {
	Rank(ctx context.Context, req rank.Request) ([]rank.RankedPlace, error)
}

// Constants for search validation.
const (
	// MaxBboxAreaDegrees caps the bbox area in square degrees (~1000km x
	// 1000km at the equator) to prevent wide scans.
	MaxBboxAreaDegrees = 10.0

	// MaxRadiusMeters caps radius searches at 100km.
	MaxRadiusMeters = 100_000
)

// SearchHandlers holds dependencies for search HTTP handlers.
type SearchHandlers struct {
	ranker Ranker
	cache  *rankcache.Cache // optional; nil disables response caching
}

// NewSearchHandlers creates a new SearchHandlers instance.
// A nil cache disables response caching.
func NewSearchHandlers(ranker Ranker, cache *rankcache.Cache) *SearchHandlers {
	return &SearchHandlers{
		ranker: ranker,
		cache:  cache,
	}
}

// SearchResponse represents the response for a place search.
type SearchResponse struct {
	Results []rank.RankedPlace `json:"results"`
	Count   int                `json:"count"`
}

// SearchPlaces handles GET /search/places - ranks places within a viewport.
//
// Query parameters:
//   - bbox=minLng,minLat,maxLng,maxLat OR lat + lng + radius (meters)
//   - category: optional place category filter
//   - filters: comma-separated capability tokens (e.g., "ndis,wheelchair")
//   - hide_sponsored: "true" to exclude sponsored placements entirely
//   - limit: max results (default 20, max 50)
func (h *SearchHandlers) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	query := r.URL.Query()

	scope, ok := h.parseScope(w, r)
	if !ok {
		return
	}

	category := place.Category(strings.TrimSpace(query.Get("category")))
	if category != "" && !place.ValidCategory(category) {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidCategory,
			fmt.Sprintf("Unknown category %q", category))
		return
	}

	var filters []string
	if raw := strings.TrimSpace(query.Get("filters")); raw != "" {
		for _, tok := range strings.Split(raw, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				filters = append(filters, tok)
			}
		}
	}

	hideSponsored := query.Get("hide_sponsored") == "true"

	limit := eligibility.DefaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		if limit > eligibility.MaxLimit {
			limit = eligibility.MaxLimit
		}
	}

	req := rank.Request{
		Scope:                scope,
		Category:             category,
		AccessibilityFilters: filters,
		HideSponsored:        hideSponsored,
		Limit:                limit,
	}

	// Serve from cache when possible. Cache failures fall through to a
	// fresh ranking pass.
	var cacheKey string
	if h.cache != nil {
		cacheKey = rankcache.Key(req)
		if results, err := h.cache.Get(r.Context(), cacheKey); err == nil {
			h.writeResults(w, r, results)
			return
		}
	}

	results, err := h.ranker.Rank(r.Context(), req)
	if err != nil {
		if errors.Is(err, eligibility.ErrMissingScope) {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeMissingScope,
				"Either 'bbox' or 'lat'+'lng'+'radius' must be provided")
			return
		}
		slog.ErrorContext(r.Context(), "failed to rank places", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to search places")
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), cacheKey, results)
	}

	h.writeResults(w, r, results)
}

// parseScope extracts the search scope from query parameters. It writes a
// validation error and returns ok=false when the parameters are malformed.
func (h *SearchHandlers) parseScope(w http.ResponseWriter, r *http.Request) (eligibility.Scope, bool) {
	query := r.URL.Query()
	var scope eligibility.Scope

	bboxStr := query.Get("bbox")
	latStr := query.Get("lat")

	if bboxStr == "" && latStr == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeMissingScope,
			"Either 'bbox' or 'lat'+'lng'+'radius' must be provided")
		return scope, false
	}

	if bboxStr != "" {
		parts := strings.Split(bboxStr, ",")
		if len(parts) != 4 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
				"bbox must be in format: minLng,minLat,maxLng,maxLat")
			return scope, false
		}

		vals := make([]float64, 4)
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
					fmt.Sprintf("Invalid bbox component %q", strings.TrimSpace(p)))
				return scope, false
			}
			vals[i] = v
		}

		bounds := geo.Bounds{
			MinLng: vals[0],
			MinLat: vals[1],
			MaxLng: vals[2],
			MaxLat: vals[3],
		}
		if err := bounds.Validate(); err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
			return scope, false
		}

		// Validate bbox area (prevent wide scans)
		area := (bounds.MaxLng - bounds.MinLng) * (bounds.MaxLat - bounds.MinLat)
		if area > MaxBboxAreaDegrees {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
				fmt.Sprintf("bbox area too large (max %.1f square degrees)", MaxBboxAreaDegrees))
			return scope, false
		}

		scope.Bounds = &bounds
		return scope, true
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Invalid lat")
		return scope, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(query.Get("lng")), 64)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Invalid lng")
		return scope, false
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(query.Get("radius")), 64)
	if err != nil || radius <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "radius must be a positive number of meters")
		return scope, false
	}
	if radius > MaxRadiusMeters {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("radius too large (max %d meters)", MaxRadiusMeters))
		return scope, false
	}

	// Bounds validation happens in Scope.Resolve, but lat/lng range errors
	// read better when reported here against the raw parameters.
	if lat < -90 || lat > 90 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Latitude must be between -90 and 90")
		return scope, false
	}
	if lng < -180 || lng > 180 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Longitude must be between -180 and 180")
		return scope, false
	}

	scope.CenterLat = lat
	scope.CenterLng = lng
	scope.RadiusMeters = radius
	return scope, true
}

// writeResults encodes the ranked results as the standard search response.
func (h *SearchHandlers) writeResults(w http.ResponseWriter, r *http.Request, results []rank.RankedPlace) {
	response := SearchResponse{
		Results: results,
		Count:   len(results),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode search response", "error", err)
	}
}
