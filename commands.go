package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trainload/internal/analysis"
	"trainload/internal/auth"
	"trainload/internal/export"
	"trainload/internal/service"
	"trainload/internal/store"
)

// defaultExportDays is the export window when --from is not given
const defaultExportDays = 90

// parseDay parses a YYYY-MM-DD flag; empty returns fallback
func parseDay(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(store.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return analysis.Day(t), nil
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch new rides from Strava and refresh snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, _, err := a.newSyncService(ctx)
			if err != nil {
				return err
			}

			progress := make(chan service.SyncProgress, 16)
			done := drainProgress(progress, func(p service.SyncProgress) {
				log.Debug().Str("phase", p.Phase).Int("completed", p.Completed).Int("total", p.Total).Str("ride", p.CurrentRide).Msg("Sync progress")
			})

			result, err := svc.SyncAll(ctx, progress)
			<-done
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetched %d activities, stored %d rides (%d with power, %d with heart rate), skipped %d\n",
				result.ActivitiesFetched, result.RidesStored, result.RidesWithPower, result.RidesWithHR, result.Skipped)
			if result.SnapshotsWritten > 0 {
				fmt.Fprintf(out, "Recomputed %d snapshots\n", result.SnapshotsWritten)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  error: %v\n", e)
			}
			return nil
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		date   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print fitness, fatigue, form and intensity for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			day, err := parseDay(date, a.load.Today())
			if err != nil {
				return err
			}
			report, err := a.load.Report(ctx, day)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report day, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, r *service.LoadReport) error {
	fmt.Fprintf(w, "Training load as of %s\n", r.AsOf.Format(store.DateLayout))
	if r.Degraded {
		fmt.Fprintln(w, "WARNING: ride history unavailable, figures assume no rides")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Fitness (CTL)\t%.0f\n", r.Metrics.CTL)
	fmt.Fprintf(tw, "Fatigue (ATL)\t%.0f\n", r.Metrics.ATL)
	fmt.Fprintf(tw, "Form (TSB)\t%+.0f\t%s\n", r.Metrics.TSB, r.Form.Status)
	fmt.Fprintf(tw, "Today TSS\t%.0f\n", r.TodayTSS)
	fmt.Fprintf(tw, "Week TSS\t%.0f\n", r.Metrics.WeeklyTSS)
	fmt.Fprintf(tw, "30 day TSS\t%.0f\n", r.Metrics.MonthlyTSS)
	warn := ""
	if r.MonotonyWarning {
		warn = "high"
	}
	fmt.Fprintf(tw, "Monotony\t%.2f\t%s\n", r.Monotony, warn)
	fmt.Fprintf(tw, "Strain\t%.0f\n", r.Strain)
	fmt.Fprintf(tw, "Intensity\t%s\tlow %.0f%% / medium %.0f%% / high %.0f%%\n",
		r.Zones.Balance, r.Zones.LowIntensityPct, r.Zones.MediumIntensityPct, r.Zones.HighIntensityPct)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n%s\n", r.Form.Message, r.Form.Recommendation)
	return nil
}

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store today's snapshot, or recompute snapshots for a range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if all {
				first, err := a.store.EarliestRideDate(ctx)
				if errors.Is(err, store.ErrRideNotFound) {
					fmt.Fprintln(out, "No rides stored")
					return nil
				}
				if err != nil {
					return err
				}
				from = analysis.Day(first).Format(store.DateLayout)
				if oldest := a.load.Today().AddDate(0, 0, -(service.MaxRangeDays - 1)); first.Before(oldest) {
					from = oldest.Format(store.DateLayout)
				}
			}
			if from == "" && to == "" {
				snap, err := a.snapshots.CaptureToday(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  CTL %.0f  ATL %.0f  TSB %+.0f  %s\n",
					snap.Date.Format(store.DateLayout), snap.CTL, snap.ATL, snap.TSB, snap.FormStatus)
				return nil
			}

			end, err := parseDay(to, a.load.Today())
			if err != nil {
				return err
			}
			start, err := parseDay(from, end)
			if err != nil {
				return err
			}
			n, err := a.snapshots.Backfill(ctx, start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d snapshots written (%s to %s)\n", n, start.Format(store.DateLayout), end.Format(store.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day to recompute, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day to recompute, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&all, "all", false, "recompute from the first stored ride")
	cmd.MarkFlagsMutuallyExclusive("all", "from")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var from, to, format, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the daily TSS, CTL, ATL and TSB series as CSV or parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(outPath), ".")
			}
			if format == "" {
				format = string(export.FormatCSV)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			end, err := parseDay(to, a.load.Today())
			if err != nil {
				return err
			}
			start, err := parseDay(from, end.AddDate(0, 0, -(defaultExportDays-1)))
			if err != nil {
				return err
			}

			trend, err := a.load.Trend(ctx, start, end)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer file.Close()
				w = file
			}

			if err := export.Write(w, f, export.FromTrend(trend)); err != nil {
				return err
			}
			log.Info().Str("format", string(f)).Int("days", len(trend)).Str("out", outPath).Msg("Export written")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default 90 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "format", "", "csv or parquet (default from --out extension, else csv)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newAuthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Connect to Strava",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			if err := cfg.ValidateStrava(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			result, err := auth.Authenticate(ctx, a.oauthConfig(), out)
			if err != nil {
				return fmt.Errorf("authentication: %w", err)
			}
			if err := result.Save(ctx, a.store); err != nil {
				return fmt.Errorf("saving auth: %w", err)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Successfully authenticated as athlete %d!\n", result.AthleteID)
			return nil
		},
	}
}

// drainProgress hands every update to fn; the returned channel closes once
// progress is closed and drained
func drainProgress(progress <-chan service.SyncProgress, fn func(service.SyncProgress)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			fn(p)
		}
	}()
	return done
}
