// Package health provides dependency checkers for the readiness endpoint.
// Each checker wraps one external dependency of the ranking pipeline.
package health

import (
	"context"
	"database/sql"
)

// DBChecker reports whether the venue database is reachable. The database is
// the one hard dependency of the ranking pipeline, so a failing check makes
// the service unready.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker wraps a database handle for readiness checks.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{
		db: db,
	}
}

// HealthCheck pings the database with the caller's deadline.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
