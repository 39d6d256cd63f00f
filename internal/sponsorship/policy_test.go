package sponsorship

import (
	"strings"
	"testing"

	"github.com/accessmate/accessrank/internal/place"
)

func TestDefaultPolicy_Valid(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy must validate: %v", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(p *Policy) {},
		},
		{
			name:    "negative viewport cap",
			mutate:  func(p *Policy) { p.MaxSponsoredPerViewport = -1 },
			wantErr: "MaxSponsoredPerViewport",
		},
		{
			name:    "negative category cap",
			mutate:  func(p *Policy) { p.MaxSponsoredPerCategory = -1 },
			wantErr: "MaxSponsoredPerCategory",
		},
		{
			name:    "floor above scale",
			mutate:  func(p *Policy) { p.QualityFloor = 101 },
			wantErr: "QualityFloor",
		},
		{
			name:    "floor below zero",
			mutate:  func(p *Policy) { p.QualityFloor = -1 },
			wantErr: "QualityFloor",
		},
		{
			name:    "missing boost bound",
			mutate:  func(p *Policy) { delete(p.BoostBounds, place.SponsorshipFeaturedVenue) },
			wantErr: "BoostBounds missing",
		},
		{
			name:    "negative boost bound",
			mutate:  func(p *Policy) { p.BoostBounds[place.SponsorshipCommunitySupporter] = -1 },
			wantErr: "BoostBounds",
		},
		{
			name:    "missing verification minimum",
			mutate:  func(p *Policy) { delete(p.MinVerification, place.SponsorshipAccessibilityLeader) },
			wantErr: "MinVerification missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
