package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"trainload/internal/store"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for reading ride summaries (Strava uses comma-separated scopes)
var Scopes = []string{
	"read,activity:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// DefaultRedirectURL is the local callback Strava sends the code to
func DefaultRedirectURL() string {
	return fmt.Sprintf("http://localhost:%d/callback", CallbackPort)
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL()
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: redirect,
		Scopes:      Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID extracts the athlete ID from the token extras
// Strava includes athlete info in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}

// TokenStore persists Strava tokens
type TokenStore interface {
	GetAuth(ctx context.Context) (*store.Auth, error)
	SaveAuth(ctx context.Context, auth *store.Auth) error
	UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenFromAuth rebuilds an oauth2 token from stored credentials
func TokenFromAuth(a *store.Auth) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		Expiry:       a.ExpiresAt,
		TokenType:    "Bearer",
	}
}

// Save stores the result of a completed OAuth flow
func (r *AuthResult) Save(ctx context.Context, ts TokenStore) error {
	return ts.SaveAuth(ctx, &store.Auth{
		AthleteID:    r.AthleteID,
		AccessToken:  r.Token.AccessToken,
		RefreshToken: r.Token.RefreshToken,
		ExpiresAt:    r.Token.Expiry,
	})
}

// LoadTokenSource builds a refreshing token source from stored credentials.
// Refreshed tokens are written back to ts. Returns store.ErrNoAuth when
// the athlete has not authenticated yet.
func LoadTokenSource(ctx context.Context, cfg *oauth2.Config, ts TokenStore) (*TokenSource, int64, error) {
	a, err := ts.GetAuth(ctx)
	if err != nil {
		return nil, 0, err
	}

	src := NewTokenSource(cfg, TokenFromAuth(a), func(t *oauth2.Token) error {
		return ts.UpdateTokens(context.Background(), t.AccessToken, t.RefreshToken, t.Expiry)
	})
	return src, a.AthleteID, nil
}
