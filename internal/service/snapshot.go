package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"trainload/internal/analysis"
	"trainload/internal/store"
)

// ErrDegraded is returned when a snapshot would be computed without ride history
var ErrDegraded = errors.New("ride history unavailable")

// SnapshotStore is the part of the ride store snapshots live in
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *store.Snapshot) error
	SnapshotsBetween(ctx context.Context, from, to time.Time) ([]store.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*store.Snapshot, error)
}

// SnapshotService persists daily load reports
type SnapshotService struct {
	load  *LoadService
	store SnapshotStore
}

// NewSnapshotService creates a snapshot service
func NewSnapshotService(load *LoadService, st SnapshotStore) *SnapshotService {
	return &SnapshotService{load: load, store: st}
}

// Capture computes and stores the snapshot for day. Reports built without
// ride history are not stored.
func (s *SnapshotService) Capture(ctx context.Context, day time.Time) (*store.Snapshot, error) {
	report, err := s.load.Report(ctx, day)
	if err != nil {
		return nil, err
	}
	if report.Degraded {
		return nil, fmt.Errorf("capturing %s: %w", analysis.Day(day).Format(store.DateLayout), ErrDegraded)
	}

	snap := snapshotFromReport(report, s.load.now())
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	log.Info().
		Str("date", snap.Date.Format(store.DateLayout)).
		Float64("ctl", snap.CTL).
		Float64("atl", snap.ATL).
		Float64("tsb", snap.TSB).
		Str("form", snap.FormStatus).
		Msg("Snapshot captured")
	return snap, nil
}

// CaptureToday captures the snapshot for the current day
func (s *SnapshotService) CaptureToday(ctx context.Context) (*store.Snapshot, error) {
	return s.Capture(ctx, s.load.Today())
}

// Backfill recomputes and stores a snapshot for every day in [from, to].
// Rides are read once; a failed read aborts without writing anything.
func (s *SnapshotService) Backfill(ctx context.Context, from, to time.Time) (int, error) {
	from, to = analysis.Day(from), analysis.Day(to)
	if err := checkRange(from, to); err != nil {
		return 0, err
	}

	samples, err := s.load.samples(ctx, from, to, 0)
	if err != nil {
		return 0, err
	}

	computedAt := s.load.now()
	written := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		snap := snapshotFromReport(s.load.reportFrom(samples, day, false), computedAt)
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			return written, err
		}
		written++
	}

	log.Info().
		Str("from", from.Format(store.DateLayout)).
		Str("to", to.Format(store.DateLayout)).
		Int("snapshots", written).
		Msg("Snapshots backfilled")
	return written, nil
}

// Between returns stored snapshots in [from, to]
func (s *SnapshotService) Between(ctx context.Context, from, to time.Time) ([]store.Snapshot, error) {
	from, to = analysis.Day(from), analysis.Day(to)
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.store.SnapshotsBetween(ctx, from, to)
}

// Latest returns the most recent stored snapshot
func (s *SnapshotService) Latest(ctx context.Context) (*store.Snapshot, error) {
	return s.store.LatestSnapshot(ctx)
}

func snapshotFromReport(r *LoadReport, computedAt time.Time) *store.Snapshot {
	return &store.Snapshot{
		Date:            r.AsOf,
		TSS:             r.TodayTSS,
		CTL:             r.Metrics.CTL,
		ATL:             r.Metrics.ATL,
		TSB:             r.Metrics.TSB,
		WeeklyTSS:       r.Metrics.WeeklyTSS,
		MonthlyTSS:      r.Metrics.MonthlyTSS,
		Monotony:        r.Monotony,
		Strain:          r.Strain,
		FormStatus:      string(r.Form.Status),
		TrainingBalance: string(r.Zones.Balance),
		ComputedAt:      computedAt,
	}
}
