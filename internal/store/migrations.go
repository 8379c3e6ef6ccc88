package store

import (
	"context"
	"fmt"
)

// migrations run in order on every open; each statement is idempotent and
// sticks to types both sqlite and postgres accept
var migrations = []string{
	// Authentication (singleton row)
	`CREATE TABLE IF NOT EXISTS auth (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		athlete_id BIGINT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at BIGINT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Rides (Strava activity summaries and manual entries)
	`CREATE TABLE IF NOT EXISTS rides (
		id TEXT PRIMARY KEY,
		athlete_id BIGINT NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		sport_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		start_date_local TEXT NOT NULL,
		moving_time INTEGER NOT NULL,
		distance DOUBLE PRECISION NOT NULL,
		total_elevation_gain DOUBLE PRECISION NOT NULL DEFAULT 0,
		average_watts DOUBLE PRECISION,
		weighted_average_watts DOUBLE PRECISION,
		average_heartrate DOUBLE PRECISION,
		max_heartrate DOUBLE PRECISION,
		training_stress_score DOUBLE PRECISION,
		zone TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_rides_start_date_local ON rides(start_date_local)`,
	`CREATE INDEX IF NOT EXISTS idx_rides_source ON rides(source)`,

	// Daily fitness snapshots
	`CREATE TABLE IF NOT EXISTS fitness_snapshots (
		date TEXT PRIMARY KEY,
		tss DOUBLE PRECISION NOT NULL,
		ctl DOUBLE PRECISION NOT NULL,
		atl DOUBLE PRECISION NOT NULL,
		tsb DOUBLE PRECISION NOT NULL,
		weekly_tss DOUBLE PRECISION NOT NULL,
		monthly_tss DOUBLE PRECISION NOT NULL,
		monotony DOUBLE PRECISION NOT NULL,
		strain DOUBLE PRECISION NOT NULL,
		form_status TEXT NOT NULL,
		training_balance TEXT NOT NULL,
		computed_at TEXT NOT NULL
	)`,

	// Sync State (key-value store for sync tracking)
	`CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// migrate runs all database migrations
func (s *Store) migrate(ctx context.Context) error {
	for i, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
