package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"trainload/internal/analysis"
	"trainload/internal/auth"
	"trainload/internal/cache"
	"trainload/internal/config"
	"trainload/internal/service"
	"trainload/internal/store"
	"trainload/internal/strava"
)

// app holds the store and the services built on it
type app struct {
	cfg        *config.Config
	store      *store.Store
	cache      cache.Cache
	closeCache func() error
	load       *service.LoadService
	rides      *service.RideService
	snapshots  *service.SnapshotService
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: st}
	a.openCache(ctx)

	engine := analysis.NewEngine(cfg.Load.EngineParams())
	windows := service.Windows{
		HistoryDays:    cfg.Load.HistoryDays,
		ZoneWindowDays: cfg.Load.ZoneWindowDays,
		ChartDays:      cfg.Load.ChartDays,
	}
	a.load = service.NewLoadService(st, engine, windows, service.WithCache(a.cache))
	a.rides = service.NewRideService(st, cfg.Athlete.Athlete(), a.load)
	a.snapshots = service.NewSnapshotService(a.load, st)
	return a, nil
}

// openCache uses redis when configured and reachable, memory otherwise
func (a *app) openCache(ctx context.Context) {
	ttl := a.cfg.Cache.TTL()
	if a.cfg.Cache.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, a.cfg.Cache.RedisAddr, ttl)
		if err == nil {
			log.Info().Str("addr", a.cfg.Cache.RedisAddr).Msg("Using redis report cache")
			a.cache, a.closeCache = r, r.Close
			return
		}
		log.Warn().Err(err).Str("addr", a.cfg.Cache.RedisAddr).Msg("Redis unavailable, using in-memory report cache")
	}
	a.cache = cache.NewMemory(ttl)
}

// newSyncService needs Strava credentials in the config and a stored token
func (a *app) newSyncService(ctx context.Context) (*service.SyncService, *strava.Client, error) {
	if err := a.cfg.ValidateStrava(); err != nil {
		return nil, nil, err
	}
	ts, athleteID, err := auth.LoadTokenSource(ctx, a.oauthConfig(), a.store)
	if err != nil {
		return nil, nil, fmt.Errorf("loading Strava token (run 'trainload auth'): %w", err)
	}
	log.Debug().
		Int64("athlete", athleteID).
		Bool("expired", ts.IsExpired()).
		Time("expiry", ts.CurrentToken().Expiry).
		Msg("Strava token loaded")

	client := strava.NewClient(ts)
	svc := service.NewSyncService(client, a.store, a.cfg.Athlete.Athlete(),
		service.WithReportInvalidation(a.load),
		service.WithSnapshotBackfill(a.snapshots),
	)
	return svc, client, nil
}

func (a *app) oauthConfig() *oauth2.Config {
	return auth.NewOAuthConfig(auth.Config{
		ClientID:     a.cfg.Strava.ClientID,
		ClientSecret: a.cfg.Strava.ClientSecret,
	})
}

func (a *app) Close() error {
	if a.closeCache != nil {
		if err := a.closeCache(); err != nil {
			log.Warn().Err(err).Msg("Closing report cache")
		}
	}
	return a.store.Close()
}
