package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trainload/internal/httpapi"
	"trainload/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled snapshots and sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			metrics := httpapi.NewMetrics()
			srv := httpapi.NewServer(cfg.Server.Addr, httpapi.Deps{
				Load:      a.load,
				Rides:     a.rides,
				Snapshots: a.snapshots,
				Metrics:   metrics,
				Store:     a.store,
			})

			sched := scheduler.New(scheduler.WithResultHook(metrics.RecordJob))
			if err := a.scheduleJobs(ctx, sched, metrics); err != nil {
				return err
			}
			sched.Start()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err = <-errCh:
			case <-ctx.Done():
				log.Info().Msg("Shutdown requested")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				log.Error().Err(serr).Msg("HTTP API shutdown")
			}
			if serr := sched.Stop(shutdownCtx); serr != nil {
				log.Error().Err(serr).Msg("Scheduler shutdown")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// scheduleJobs registers the daily snapshot and, when configured and
// authenticated, the periodic Strava sync
func (a *app) scheduleJobs(ctx context.Context, sched *scheduler.Scheduler, metrics *httpapi.Metrics) error {
	if spec := a.cfg.Schedule.SnapshotCron; spec != "" {
		err := sched.Add("snapshot", spec, func(ctx context.Context) error {
			_, err := a.snapshots.CaptureToday(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	spec := a.cfg.Schedule.SyncCron
	if spec == "" {
		return nil
	}
	svc, _, err := a.newSyncService(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Scheduled sync disabled")
		return nil
	}
	return sched.Add("sync", spec, func(ctx context.Context) error {
		result, err := svc.SyncAll(ctx, nil)
		metrics.RecordSync(result, err)
		return err
	})
}
