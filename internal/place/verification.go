// Package place provides models and repository for accessibility-verified
// venues, their verification records, and sponsorship arrangements.
package place

import "time"

// VerificationTier is an ordered accessibility-compliance rating.
// Higher values indicate stronger attestations.
type VerificationTier int

// Verification tiers in ascending order.
const (
	TierNone VerificationTier = iota
	TierBronze
	TierSilver
	TierGold
)

// String returns the lowercase tier name used in API responses.
func (t VerificationTier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	default:
		return ""
	}
}

// ParseVerificationTier converts a tier name to its VerificationTier value.
// Unknown names map to TierNone.
func ParseVerificationTier(s string) VerificationTier {
	switch s {
	case "bronze":
		return TierBronze
	case "silver":
		return TierSilver
	case "gold":
		return TierGold
	default:
		return TierNone
	}
}

// VerificationRecord is a time-bounded attestation of accessibility
// compliance for a venue. A record with ExpiresAt in the past must never be
// treated as valid for tier computation or disclosure.
type VerificationRecord struct {
	ID         string           `json:"id"`
	VenueID    string           `json:"venue_id"`
	Tier       VerificationTier `json:"tier"`
	VerifiedAt time.Time        `json:"verified_at"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	Evidence   []string         `json:"evidence,omitempty"`
}

// ValidAt reports whether the record is valid at the given time.
// A record with no expiry never expires.
func (r *VerificationRecord) ValidAt(now time.Time) bool {
	if r.ExpiresAt == nil {
		return true
	}
	return r.ExpiresAt.After(now)
}
