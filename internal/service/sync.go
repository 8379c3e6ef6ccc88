package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"trainload/internal/analysis"
	"trainload/internal/store"
	"trainload/internal/strava"
)

// ActivitySource pages through the athlete's Strava activities
type ActivitySource interface {
	GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]strava.Activity, error)
}

// SyncStore is the part of the ride store sync writes to
type SyncStore interface {
	UpsertRide(ctx context.Context, r *store.Ride) error
	GetSyncState(ctx context.Context, key string) (string, error)
	SetSyncState(ctx context.Context, key, value string) error
}

// Backfiller recomputes stored snapshots for a range of days
type Backfiller interface {
	Backfill(ctx context.Context, from, to time.Time) (int, error)
}

// SyncService orchestrates syncing rides from Strava
type SyncService struct {
	client    ActivitySource
	store     SyncStore
	athlete   analysis.Athlete
	reports   Invalidator
	snapshots Backfiller
	now       func() time.Time
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithReportInvalidation drops cached reports whenever a sync stores rides
func WithReportInvalidation(reports Invalidator) SyncOption {
	return func(s *SyncService) {
		s.reports = reports
	}
}

// WithSnapshotBackfill recomputes snapshots from the earliest synced ride onwards
func WithSnapshotBackfill(snapshots Backfiller) SyncOption {
	return func(s *SyncService) {
		s.snapshots = snapshots
	}
}

// NewSyncService creates a sync service; the athlete anchors turn power and HR into stress
func NewSyncService(client ActivitySource, st SyncStore, athlete analysis.Athlete, opts ...SyncOption) *SyncService {
	s := &SyncService{
		client:  client,
		store:   st,
		athlete: athlete,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync phases
const (
	PhaseRides     = "rides"
	PhaseSnapshots = "snapshots"
)

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase       string
	Total       int
	Completed   int
	CurrentRide string
	Error       error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	RidesStored       int
	RidesWithPower    int
	RidesWithHR       int
	Skipped           int // non-cycling activities
	SnapshotsWritten  int
	Errors            []error
}

// SyncAll fetches rides newer than the last sync, then refreshes snapshots.
// progress, when given, is closed on return.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	// Phase 1: ride summaries
	earliest, err := s.syncRides(ctx, progress, result)
	if result.RidesStored > 0 && s.reports != nil {
		s.reports.Invalidate(ctx)
	}
	if err != nil {
		return result, fmt.Errorf("syncing rides: %w", err)
	}

	// Phase 2: snapshots affected by the new rides
	if result.RidesStored > 0 && s.snapshots != nil {
		if err := s.backfillSnapshots(ctx, progress, earliest, result); err != nil {
			return result, fmt.Errorf("refreshing snapshots: %w", err)
		}
	}

	log.Info().
		Int("fetched", result.ActivitiesFetched).
		Int("stored", result.RidesStored).
		Int("skipped", result.Skipped).
		Int("snapshots", result.SnapshotsWritten).
		Int("errors", len(result.Errors)).
		Msg("Sync complete")

	return result, nil
}

// syncRides pages through activities after the last sync mark and stores the rides.
// It returns the earliest ride date stored.
func (s *SyncService) syncRides(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) (time.Time, error) {
	after, err := s.lastSync(ctx)
	if err != nil {
		return time.Time{}, err
	}

	send(ctx, progress, SyncProgress{Phase: PhaseRides})

	// failed is the start of the earliest activity that could not be stored;
	// the mark must stay before it so the next sync fetches it again
	var earliest, latest, failed time.Time
	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return earliest, ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, after, page, SyncPageSize)
		if err != nil {
			return earliest, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(activities) == 0 {
			break
		}

		result.ActivitiesFetched += len(activities)

		for _, a := range activities {
			if a.StartDate.After(latest) {
				latest = a.StartDate
			}
			if !a.IsCycling() {
				result.Skipped++
				continue
			}

			ride, source := convertActivity(a, s.athlete)
			if err := s.store.UpsertRide(ctx, ride); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
				if failed.IsZero() || a.StartDate.Before(failed) {
					failed = a.StartDate
				}
				continue
			}

			result.RidesStored++
			switch source {
			case analysis.SourcePower:
				result.RidesWithPower++
			case analysis.SourceHeartRate:
				result.RidesWithHR++
			}

			day := analysis.Day(ride.StartDateLocal)
			if earliest.IsZero() || day.Before(earliest) {
				earliest = day
			}
		}

		send(ctx, progress, SyncProgress{
			Phase:       PhaseRides,
			Total:       result.ActivitiesFetched,
			Completed:   result.RidesStored,
			CurrentRide: activities[len(activities)-1].Name,
		})

		if len(activities) < SyncPageSize {
			break // Last page
		}
	}

	mark := latest
	if !failed.IsZero() && !failed.After(mark) {
		mark = failed.Add(-time.Second)
	}
	if mark.After(after) {
		if err := s.store.SetSyncState(ctx, store.SyncKeyLastRideSync, mark.UTC().Format(time.RFC3339)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving sync mark: %w", err))
		}
	}
	return earliest, nil
}

func (s *SyncService) backfillSnapshots(ctx context.Context, progress chan<- SyncProgress, from time.Time, result *SyncResult) error {
	today := analysis.Day(s.now())
	if oldest := today.AddDate(0, 0, -(MaxRangeDays - 1)); from.Before(oldest) {
		from = oldest
	}
	if from.After(today) {
		return nil
	}

	days := int(today.Sub(from).Hours()/24) + 1
	send(ctx, progress, SyncProgress{Phase: PhaseSnapshots, Total: days})

	n, err := s.snapshots.Backfill(ctx, from, today)
	result.SnapshotsWritten = n
	if err != nil {
		return err
	}

	send(ctx, progress, SyncProgress{Phase: PhaseSnapshots, Total: days, Completed: n})
	return nil
}

func (s *SyncService) lastSync(ctx context.Context) (time.Time, error) {
	mark, err := s.store.GetSyncState(ctx, store.SyncKeyLastRideSync)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading sync mark: %w", err)
	}
	if mark == "" {
		return time.Time{}, nil
	}
	after, err := time.Parse(time.RFC3339, mark)
	if err != nil {
		log.Warn().Str("mark", mark).Msg("Unreadable sync mark, syncing full history")
		return time.Time{}, nil
	}
	return after, nil
}

// send delivers a progress update unless the sync is being cancelled
func send(ctx context.Context, progress chan<- SyncProgress, p SyncProgress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	case <-ctx.Done():
	}
}

// convertActivity converts a Strava ride into a stored ride, deriving its stress
// from power (device-recorded only) or heart rate
func convertActivity(a strava.Activity, athlete analysis.Athlete) (*store.Ride, analysis.StressSource) {
	ride := &store.Ride{
		ID:                 store.StravaRideID(a.ID),
		AthleteID:          a.Athlete.ID,
		Name:               a.Name,
		SportType:          a.Sport(),
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		MovingTime:         a.MovingTime,
		Distance:           a.Distance,
		TotalElevationGain: a.TotalElevationGain,
		Source:             store.SourceStrava,
	}

	if a.HasPower() {
		if a.AverageWatts > 0 {
			v := a.AverageWatts
			ride.AverageWatts = &v
		}
		if a.WeightedAverageWatts > 0 {
			v := a.WeightedAverageWatts
			ride.WeightedAverageWatts = &v
		}
	}
	if a.HasHeartrate && a.AverageHeartrate > 0 {
		v := a.AverageHeartrate
		ride.AverageHeartrate = &v
	}
	if a.MaxHeartrate > 0 {
		v := a.MaxHeartrate
		ride.MaxHeartrate = &v
	}

	intensity := analysis.ComputeRideIntensity(float64(a.MovingTime),
		ride.AverageWatts, ride.WeightedAverageWatts, ride.AverageHeartrate, athlete)
	ride.TrainingStressScore = intensity.TSS
	ride.Zone = string(intensity.Zone)

	return ride, intensity.Source
}
