// Package geo provides geographic primitives for viewport scoping and
// cache keying.
package geo

import (
	"errors"
	"math"
)

// Bounds validation errors.
var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
	ErrInvertedBounds   = errors.New("min bound must be less than max bound")
	ErrInvalidRadius    = errors.New("radius must be greater than 0")
)

// metersPerDegree is the approximate length of one degree of latitude.
const metersPerDegree = 111_000.0

// minCosLat floors the cosine term in the longitude conversion so bounds
// near the poles do not blow up to infinity.
const minCosLat = 0.01

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks that the bounds describe a well-formed bounding box.
func (b Bounds) Validate() error {
	if b.MinLat < -90 || b.MinLat > 90 || b.MaxLat < -90 || b.MaxLat > 90 {
		return ErrInvalidLatitude
	}
	if b.MinLng < -180 || b.MinLng > 180 || b.MaxLng < -180 || b.MaxLng > 180 {
		return ErrInvalidLongitude
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return ErrInvertedBounds
	}
	return nil
}

// Contains reports whether the point lies inside the bounding box (inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// Center returns the midpoint of the bounding box.
func (b Bounds) Center() (lat, lng float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}

// BoundsFromRadius converts a center point plus radius in meters to an
// approximate bounding box using a flat-Earth approximation:
// 1 degree latitude is roughly 111 km, 1 degree longitude is roughly
// 111 km * cos(latitude). The cosine term is floored to avoid division
// blow-up near the poles.
//
// Parameters:
//   - lat, lng: center point in degrees
//   - radiusMeters: search radius in meters, must be > 0
//
// Returns the bounding box, clamped to valid coordinate ranges.
func BoundsFromRadius(lat, lng, radiusMeters float64) (Bounds, error) {
	if lat < -90 || lat > 90 {
		return Bounds{}, ErrInvalidLatitude
	}
	if lng < -180 || lng > 180 {
		return Bounds{}, ErrInvalidLongitude
	}
	if radiusMeters <= 0 {
		return Bounds{}, ErrInvalidRadius
	}

	latDelta := radiusMeters / metersPerDegree

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < minCosLat {
		cosLat = minCosLat
	}
	lngDelta := radiusMeters / (metersPerDegree * cosLat)

	b := Bounds{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLng: math.Max(lng-lngDelta, -180),
		MaxLng: math.Min(lng+lngDelta, 180),
	}
	return b, nil
}
