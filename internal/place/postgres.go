// Package place provides models and repository for accessibility-verified
// venues, their verification records, and sponsorship arrangements.
package place

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/accessmate/accessrank/internal/tracing"
)

// recentVerificationLimit bounds how many verification records are eagerly
// loaded per venue. Five is enough to determine the best and latest valid
// records for ranking and disclosure.
const recentVerificationLimit = 5

// PostgresVenueRepository implements VenueRepository using PostgreSQL.
// It issues one venue query plus two batched eager-load queries per search,
// never a per-venue round trip.
type PostgresVenueRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresVenueRepository creates a new PostgresVenueRepository.
func NewPostgresVenueRepository(db *sql.DB, logger *slog.Logger) *PostgresVenueRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVenueRepository{
		db:     db,
		logger: logger,
	}
}

// SearchActive returns active venues within the query bounds, optionally
// restricted to a category, ordered by venue ID for determinism.
func (r *PostgresVenueRepository) SearchActive(ctx context.Context, q SearchQuery) (venues []*Venue, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "venues", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, name, description, category, lat, lng,
		       street, suburb, state, postcode, country,
		       wheelchair_access, accessible_parking, accessible_toilet,
		       hearing_loop, step_free_entry, accessibility_notes,
		       amenities, accepts_ndis, verified, verified_at,
		       accessibility_confidence, community_score,
		       status, logo_url, created_at, updated_at
		FROM venues
		WHERE status = $1
		  AND lat BETWEEN $2 AND $3
		  AND lng BETWEEN $4 AND $5
		  AND ($6 = '' OR category = $6)
		ORDER BY id ASC
	`
	args := []interface{}{
		StatusActive,
		q.Bounds.MinLat, q.Bounds.MaxLat,
		q.Bounds.MinLng, q.Bounds.MaxLng,
		string(q.Category),
	}
	if q.Limit > 0 {
		query += " LIMIT $7"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close venue rows", "error", err)
		}
	}()

	ids := make([]string, 0)
	byID := make(map[string]*Venue)

	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, v)
		ids = append(ids, v.ID)
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}

	if len(venues) == 0 {
		return venues, nil
	}

	if err := r.loadVerifications(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadSponsorships(ctx, ids, byID); err != nil {
		return nil, err
	}

	return venues, nil
}

// GetByID retrieves a venue by its ID, including verifications and
// sponsorships. Returns ErrVenueNotFound if no venue exists.
func (r *PostgresVenueRepository) GetByID(ctx context.Context, id string) (v *Venue, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "venues", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, name, description, category, lat, lng,
		       street, suburb, state, postcode, country,
		       wheelchair_access, accessible_parking, accessible_toilet,
		       hearing_loop, step_free_entry, accessibility_notes,
		       amenities, accepts_ndis, verified, verified_at,
		       accessibility_confidence, community_score,
		       status, logo_url, created_at, updated_at
		FROM venues
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	v, err = scanVenue(row)
	if err == sql.ErrNoRows {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}

	byID := map[string]*Venue{v.ID: v}
	if err := r.loadVerifications(ctx, []string{v.ID}, byID); err != nil {
		return nil, err
	}
	if err := r.loadSponsorships(ctx, []string{v.ID}, byID); err != nil {
		return nil, err
	}
	return v, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanVenue scans one venue row into a Venue struct.
func scanVenue(s scanner) (*Venue, error) {
	var (
		v           Venue
		description sql.NullString
		category    string
		verifiedAt  sql.NullTime
		confidence  sql.NullFloat64
		community   sql.NullFloat64
		logoURL     sql.NullString
		notes       sql.NullString
	)

	err := s.Scan(
		&v.ID, &v.Name, &description, &category, &v.Lat, &v.Lng,
		&v.Address.Street, &v.Address.Suburb, &v.Address.State,
		&v.Address.Postcode, &v.Address.Country,
		&v.Accessibility.WheelchairAccess, &v.Accessibility.AccessibleParking,
		&v.Accessibility.AccessibleToilet, &v.Accessibility.HearingLoop,
		&v.Accessibility.StepFreeEntry, &notes,
		pq.Array(&v.Amenities), &v.AcceptsNDIS, &v.Verified, &verifiedAt,
		&confidence, &community,
		&v.Status, &logoURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Description = description.String
	v.Category = Category(category)
	v.Accessibility.Notes = notes.String
	v.LogoURL = logoURL.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		v.VerifiedAt = &t
	}
	if confidence.Valid {
		c := confidence.Float64
		v.AccessibilityConfidence = &c
	}
	if community.Valid {
		c := community.Float64
		v.CommunityScore = &c
	}
	return &v, nil
}

// loadVerifications eagerly loads the most recent verification records for
// the given venue IDs in a single query.
func (r *PostgresVenueRepository) loadVerifications(ctx context.Context, ids []string, byID map[string]*Venue) error {
	// ROW_NUMBER keeps only the most recent records per venue so a venue
	// with a long verification history does not bloat the response.
	query := `
		SELECT id, venue_id, tier, verified_at, expires_at, evidence
		FROM (
			SELECT id, venue_id, tier, verified_at, expires_at, evidence,
			       ROW_NUMBER() OVER (PARTITION BY venue_id ORDER BY verified_at DESC) AS rn
			FROM venue_verifications
			WHERE venue_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY venue_id, verified_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), recentVerificationLimit)
	if err != nil {
		return fmt.Errorf("failed to query verifications: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close verification rows", "error", err)
		}
	}()

	for rows.Next() {
		var (
			rec       VerificationRecord
			tier      string
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.VenueID, &tier, &rec.VerifiedAt, &expiresAt, pq.Array(&rec.Evidence)); err != nil {
			return fmt.Errorf("failed to scan verification: %w", err)
		}
		rec.Tier = ParseVerificationTier(tier)
		if expiresAt.Valid {
			t := expiresAt.Time
			rec.ExpiresAt = &t
		}
		if v, ok := byID[rec.VenueID]; ok {
			v.Verifications = append(v.Verifications, rec)
		}
	}
	return rows.Err()
}

// loadSponsorships eagerly loads currently-relevant sponsorship records for
// the given venue IDs in a single query. Only active-status sponsorships
// within their validity window are relevant to ranking; de-boost filtering
// happens in the ranker because it is time-of-request dependent.
func (r *PostgresVenueRepository) loadSponsorships(ctx context.Context, ids []string, byID map[string]*Venue) error {
	query := `
		SELECT id, venue_id, tier, status, starts_at, ends_at,
		       deboost_until, deboost_reason
		FROM venue_sponsorships
		WHERE venue_id = ANY($1)
		  AND status = $2
		  AND starts_at <= $3
		  AND (ends_at IS NULL OR ends_at >= $3)
		ORDER BY venue_id, starts_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), SponsorshipStatusActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to query sponsorships: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close sponsorship rows", "error", err)
		}
	}()

	for rows.Next() {
		var (
			sp           Sponsorship
			tier         string
			endsAt       sql.NullTime
			deboostUntil sql.NullTime
			reason       sql.NullString
		)
		if err := rows.Scan(&sp.ID, &sp.VenueID, &tier, &sp.Status, &sp.StartsAt, &endsAt, &deboostUntil, &reason); err != nil {
			return fmt.Errorf("failed to scan sponsorship: %w", err)
		}
		sp.Tier = ParseSponsorshipTier(tier)
		if endsAt.Valid {
			t := endsAt.Time
			sp.EndsAt = &t
		}
		if deboostUntil.Valid {
			t := deboostUntil.Time
			sp.Policy.DeboostUntil = &t
		}
		sp.Policy.DeboostReason = reason.String
		if v, ok := byID[sp.VenueID]; ok {
			v.Sponsorships = append(v.Sponsorships, sp)
		}
	}
	return rows.Err()
}
