// Package place provides models and repository for accessibility-verified
// venues, their verification records, and sponsorship arrangements.
package place

import "time"

// SponsorshipTier is an ordered paid-promotion level.
// Higher values take priority when a venue holds multiple sponsorships.
type SponsorshipTier int

// Sponsorship tiers in ascending order.
const (
	SponsorshipNone SponsorshipTier = iota
	SponsorshipCommunitySupporter
	SponsorshipFeaturedVenue
	SponsorshipAccessibilityLeader
)

// String returns the machine-readable tier name used in API responses.
func (t SponsorshipTier) String() string {
	switch t {
	case SponsorshipCommunitySupporter:
		return "community_supporter"
	case SponsorshipFeaturedVenue:
		return "featured_accessible_venue"
	case SponsorshipAccessibilityLeader:
		return "accessibility_leader"
	default:
		return ""
	}
}

// DisplayName returns the human-readable tier name used in disclosure text.
func (t SponsorshipTier) DisplayName() string {
	switch t {
	case SponsorshipCommunitySupporter:
		return "Community Supporter"
	case SponsorshipFeaturedVenue:
		return "Featured Accessible Venue"
	case SponsorshipAccessibilityLeader:
		return "Accessibility Leader"
	default:
		return ""
	}
}

// ParseSponsorshipTier converts a tier name to its SponsorshipTier value.
// Unknown names map to SponsorshipNone.
func ParseSponsorshipTier(s string) SponsorshipTier {
	switch s {
	case "community_supporter":
		return SponsorshipCommunitySupporter
	case "featured_accessible_venue":
		return SponsorshipFeaturedVenue
	case "accessibility_leader":
		return SponsorshipAccessibilityLeader
	default:
		return SponsorshipNone
	}
}

// Sponsorship status values.
const (
	SponsorshipStatusActive    = "active"
	SponsorshipStatusPending   = "pending"
	SponsorshipStatusSuspended = "suspended"
	SponsorshipStatusCancelled = "cancelled"
)

// BoostPolicy carries enforcement adjustments applied to a sponsorship.
// DeboostUntil temporarily suppresses promotion without terminating the
// sponsorship record.
type BoostPolicy struct {
	DeboostUntil  *time.Time `json:"deboost_until,omitempty"`
	DeboostReason string     `json:"deboost_reason,omitempty"`
}

// Sponsorship binds a venue to a paid promotion arrangement.
type Sponsorship struct {
	ID       string          `json:"id"`
	VenueID  string          `json:"venue_id"`
	Tier     SponsorshipTier `json:"tier"`
	Status   string          `json:"status"`
	StartsAt time.Time       `json:"starts_at"`
	EndsAt   *time.Time      `json:"ends_at,omitempty"` // nil means open-ended
	Policy   BoostPolicy     `json:"policy"`
}

// ActiveAt reports whether the sponsorship is currently active for ranking:
// status is active, now falls within [StartsAt, EndsAt-or-infinity], and any
// de-boost window has passed.
func (s *Sponsorship) ActiveAt(now time.Time) bool {
	if s.Status != SponsorshipStatusActive {
		return false
	}
	if now.Before(s.StartsAt) {
		return false
	}
	if s.EndsAt != nil && now.After(*s.EndsAt) {
		return false
	}
	if s.Policy.DeboostUntil != nil && now.Before(*s.Policy.DeboostUntil) {
		return false
	}
	return true
}

// Deboosted reports whether the sponsorship is under an active de-boost
// window at the given time.
func (s *Sponsorship) Deboosted(now time.Time) bool {
	return s.Policy.DeboostUntil != nil && now.Before(*s.Policy.DeboostUntil)
}
