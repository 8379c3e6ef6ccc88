package store

import (
	"context"
	"database/sql"
	"errors"
)

// Sync state keys
const (
	SyncKeyLastRideSync = "last_ride_sync"
)

// GetSyncState retrieves a sync state value by key
// Returns empty string if key doesn't exist
func (s *Store) GetSyncState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.q(`SELECT value FROM sync_state WHERE key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value
func (s *Store) SetSyncState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`), key, value, now())
	return err
}
