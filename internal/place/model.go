// Package place provides models and repository for accessibility-verified
// venues, their verification records, and sponsorship arrangements.
package place

import (
	"errors"
	"time"
)

// Category classifies a venue by its primary offering.
type Category string

// Valid venue categories.
const (
	CategoryCafe       Category = "cafe"
	CategoryRestaurant Category = "restaurant"
	CategoryRetail     Category = "retail"
	CategoryHealth     Category = "health"
	CategoryTransport  Category = "transport"
	CategoryRecreation Category = "recreation"
	CategoryServices   Category = "services"
	CategoryOther      Category = "other"
)

// validCategories is a lookup set for category validation.
var validCategories = map[Category]bool{
	CategoryCafe:       true,
	CategoryRestaurant: true,
	CategoryRetail:     true,
	CategoryHealth:     true,
	CategoryTransport:  true,
	CategoryRecreation: true,
	CategoryServices:   true,
	CategoryOther:      true,
}

// ValidCategory checks if a category string is one of the known categories.
func ValidCategory(c Category) bool {
	return validCategories[c]
}

// Venue status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Validation errors.
var (
	ErrInvalidCategory   = errors.New("invalid venue category")
	ErrInvalidConfidence = errors.New("invalid accessibility confidence: must be between 0.0 and 1.0")
	ErrInvalidCommunity  = errors.New("invalid community score: must be between 0.0 and 1.0")
)

// AccessibilityProfile is the structured accessibility descriptor for a venue.
// All fields are explicit so scoring can inspect them without untyped lookups.
type AccessibilityProfile struct {
	WheelchairAccess  bool   `json:"wheelchair_access,omitempty"`
	AccessibleParking bool   `json:"accessible_parking,omitempty"`
	AccessibleToilet  bool   `json:"accessible_toilet,omitempty"`
	HearingLoop       bool   `json:"hearing_loop,omitempty"`
	StepFreeEntry     bool   `json:"step_free_entry,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// IsEmpty reports whether the profile carries no accessibility information.
func (p AccessibilityProfile) IsEmpty() bool {
	return p == AccessibilityProfile{}
}

// Address holds the postal address fields for a venue.
type Address struct {
	Street   string `json:"street,omitempty"`
	Suburb   string `json:"suburb,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Venue represents a place of business with accessibility metadata.
// Venues are created and updated by external flows; the ranking service
// treats them as read-only.
type Venue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Address     Address  `json:"address"`

	Accessibility AccessibilityProfile `json:"accessibility"`
	Amenities     []string             `json:"amenities,omitempty"`

	// AcceptsNDIS indicates the venue accepts funded-support payments.
	AcceptsNDIS bool `json:"accepts_ndis"`

	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	// AccessibilityConfidence is an optional 0-1 confidence signal.
	AccessibilityConfidence *float64 `json:"accessibility_confidence,omitempty"`

	// CommunityScore is an optional 0-1 community rating signal.
	CommunityScore *float64 `json:"community_score,omitempty"`

	Status  string `json:"status"`
	LogoURL string `json:"logo_url,omitempty"`

	Verifications []VerificationRecord `json:"verifications,omitempty"`
	Sponsorships  []Sponsorship        `json:"sponsorships,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AmenityWheelchair is the amenity tag indicating wheelchair accessibility.
const AmenityWheelchair = "wheelchair"

// HasAmenity reports whether the venue carries the given amenity tag.
func (v *Venue) HasAmenity(tag string) bool {
	for _, a := range v.Amenities {
		if a == tag {
			return true
		}
	}
	return false
}

// WheelchairAccessible reports whether the venue is wheelchair accessible,
// either via an amenity tag or its accessibility profile.
func (v *Venue) WheelchairAccessible() bool {
	return v.HasAmenity(AmenityWheelchair) || v.Accessibility.WheelchairAccess
}

// Validate checks venue fields that the ranking service depends on.
// Returns an error for the first invalid field found.
func (v *Venue) Validate() error {
	if !ValidCategory(v.Category) {
		return ErrInvalidCategory
	}
	if v.AccessibilityConfidence != nil {
		if *v.AccessibilityConfidence < 0.0 || *v.AccessibilityConfidence > 1.0 {
			return ErrInvalidConfidence
		}
	}
	if v.CommunityScore != nil {
		if *v.CommunityScore < 0.0 || *v.CommunityScore > 1.0 {
			return ErrInvalidCommunity
		}
	}
	return nil
}

// BestValidVerification returns the highest-tier verification record that is
// valid at the given time, or nil if none. Ties on tier are broken by the
// earliest verification date so the result is deterministic.
func (v *Venue) BestValidVerification(now time.Time) *VerificationRecord {
	var best *VerificationRecord
	for i := range v.Verifications {
		rec := &v.Verifications[i]
		if !rec.ValidAt(now) {
			continue
		}
		if best == nil || rec.Tier > best.Tier ||
			(rec.Tier == best.Tier && rec.VerifiedAt.Before(best.VerifiedAt)) {
			best = rec
		}
	}
	return best
}

// LatestValidVerification returns the most recently verified record that is
// valid at the given time, or nil if none. It supplies freshness and evidence
// for display.
func (v *Venue) LatestValidVerification(now time.Time) *VerificationRecord {
	var latest *VerificationRecord
	for i := range v.Verifications {
		rec := &v.Verifications[i]
		if !rec.ValidAt(now) {
			continue
		}
		if latest == nil || rec.VerifiedAt.After(latest.VerifiedAt) {
			latest = rec
		}
	}
	return latest
}

// HighestActiveSponsorship returns the highest-tier sponsorship that is
// currently active for ranking at the given time, or nil if none.
// Ties on tier are broken by the earliest start date.
func (v *Venue) HighestActiveSponsorship(now time.Time) *Sponsorship {
	var best *Sponsorship
	for i := range v.Sponsorships {
		sp := &v.Sponsorships[i]
		if !sp.ActiveAt(now) {
			continue
		}
		if best == nil || sp.Tier > best.Tier ||
			(sp.Tier == best.Tier && sp.StartsAt.Before(best.StartsAt)) {
			best = sp
		}
	}
	return best
}
