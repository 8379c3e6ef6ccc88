package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetAuth retrieves the stored authentication tokens
func (s *Store) GetAuth(ctx context.Context) (*Auth, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT athlete_id, access_token, refresh_token, expires_at
		FROM auth
		WHERE id = 1
	`)

	var auth Auth
	var expiresAt int64
	err := row.Scan(&auth.AthleteID, &auth.AccessToken, &auth.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAuth
	}
	if err != nil {
		return nil, err
	}

	auth.ExpiresAt = time.Unix(expiresAt, 0)
	return &auth, nil
}

// SaveAuth stores or updates the authentication tokens
func (s *Store) SaveAuth(ctx context.Context, auth *Auth) error {
	ts := now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO auth (id, athlete_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`), auth.AthleteID, auth.AccessToken, auth.RefreshToken, auth.ExpiresAt.Unix(), ts, ts)
	return err
}

// UpdateTokens updates just the access and refresh tokens
func (s *Store) UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx, s.q(`
		UPDATE auth
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = 1
	`), accessToken, refreshToken, expiresAt.Unix(), now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoAuth
	}
	return nil
}
