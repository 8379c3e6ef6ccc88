package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"trainload/internal/analysis"
	"trainload/internal/store"
)

// ErrInvalidRide is returned when a manual ride fails validation
var ErrInvalidRide = errors.New("invalid ride")

// ToSample converts a stored ride to the engine's view of it.
// An unrecognised zone is returned as an error alongside a sample with no zone.
func ToSample(r store.Ride) (analysis.RideSample, error) {
	zone, err := analysis.ParseZone(r.Zone)
	return analysis.RideSample{
		Date:                r.StartDateLocal,
		DurationSeconds:     float64(r.MovingTime),
		DistanceKm:          r.Distance / MetersPerKm,
		ElevationGainM:      r.TotalElevationGain,
		TrainingStressScore: r.TrainingStressScore,
		Zone:                zone,
		AveragePowerW:       r.AverageWatts,
		AverageHeartRate:    r.AverageHeartrate,
	}, err
}

// ToSamples converts stored rides, dropping (and logging) unknown zone labels
func ToSamples(rides []store.Ride) []analysis.RideSample {
	samples := make([]analysis.RideSample, 0, len(rides))
	for _, r := range rides {
		sample, err := ToSample(r)
		if err != nil {
			log.Warn().Err(err).Str("ride", r.ID).Msg("Ignoring zone")
		}
		samples = append(samples, sample)
	}
	return samples
}

// RideStore is the part of the ride store manual entry needs
type RideStore interface {
	UpsertRide(ctx context.Context, r *store.Ride) error
	GetRide(ctx context.Context, id string) (*store.Ride, error)
	DeleteRide(ctx context.Context, id string) error
	RecentRides(ctx context.Context, limit int) ([]store.Ride, error)
}

// Invalidator is notified when stored rides change
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// ManualRide is a ride entered by hand
type ManualRide struct {
	Date                time.Time // wall-clock start; only the date matters to the model
	Name                string
	DurationSeconds     float64
	DistanceKm          float64
	ElevationGainM      float64
	TrainingStressScore *float64
	Zone                string
	AveragePowerW       *float64
	AverageHeartRate    *float64
}

// RideService adds and removes rides outside of Strava sync
type RideService struct {
	store   RideStore
	athlete analysis.Athlete
	reports Invalidator
}

// NewRideService creates a ride service; reports may be nil
func NewRideService(rs RideStore, athlete analysis.Athlete, reports Invalidator) *RideService {
	return &RideService{store: rs, athlete: athlete, reports: reports}
}

// Add validates and stores a manual ride. Missing stress or zone is derived
// from power or heart rate when given.
func (s *RideService) Add(ctx context.Context, in ManualRide) (*store.Ride, error) {
	zone, err := in.validate()
	if err != nil {
		return nil, err
	}

	tss := in.TrainingStressScore
	if tss == nil || zone == analysis.ZoneNone {
		derived := analysis.ComputeRideIntensity(in.DurationSeconds, in.AveragePowerW, nil, in.AverageHeartRate, s.athlete)
		if tss == nil {
			tss = derived.TSS
		}
		if zone == analysis.ZoneNone {
			zone = derived.Zone
		}
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Manual ride"
	}

	ride := &store.Ride{
		ID:                  store.NewManualRideID(),
		Name:                name,
		SportType:           "Ride",
		StartDate:           in.Date.UTC(),
		StartDateLocal:      in.Date,
		MovingTime:          int(math.Round(in.DurationSeconds)),
		Distance:            in.DistanceKm * MetersPerKm,
		TotalElevationGain:  in.ElevationGainM,
		AverageWatts:        in.AveragePowerW,
		AverageHeartrate:    in.AverageHeartRate,
		TrainingStressScore: tss,
		Zone:                string(zone),
		Source:              store.SourceManual,
	}

	if err := s.store.UpsertRide(ctx, ride); err != nil {
		return nil, err
	}
	log.Info().Str("ride", ride.ID).Str("date", in.Date.Format(store.DateLayout)).Msg("Manual ride added")

	s.invalidate(ctx)
	return ride, nil
}

// Get returns a stored ride
func (s *RideService) Get(ctx context.Context, id string) (*store.Ride, error) {
	return s.store.GetRide(ctx, id)
}

// Delete removes a ride of any source
func (s *RideService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRide(ctx, id); err != nil {
		return err
	}
	log.Info().Str("ride", id).Msg("Ride deleted")

	s.invalidate(ctx)
	return nil
}

// Recent returns the latest rides, newest first
func (s *RideService) Recent(ctx context.Context, limit int) ([]store.Ride, error) {
	if limit <= 0 {
		limit = RecentRidesLimit
	}
	return s.store.RecentRides(ctx, limit)
}

func (s *RideService) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.Invalidate(ctx)
	}
}

// validate rejects rides the model cannot use and parses the zone
func (in ManualRide) validate() (analysis.Zone, error) {
	if in.Date.IsZero() {
		return analysis.ZoneNone, fmt.Errorf("%w: date is required", ErrInvalidRide)
	}
	if !finite(in.DurationSeconds) || in.DurationSeconds <= 0 {
		return analysis.ZoneNone, fmt.Errorf("%w: duration must be positive", ErrInvalidRide)
	}
	if !finite(in.DistanceKm) || in.DistanceKm < 0 {
		return analysis.ZoneNone, fmt.Errorf("%w: distance must not be negative", ErrInvalidRide)
	}
	if !finite(in.ElevationGainM) || in.ElevationGainM < 0 {
		return analysis.ZoneNone, fmt.Errorf("%w: elevation gain must not be negative", ErrInvalidRide)
	}
	if in.TrainingStressScore != nil && (!finite(*in.TrainingStressScore) || *in.TrainingStressScore < 0) {
		return analysis.ZoneNone, fmt.Errorf("%w: training stress score must not be negative", ErrInvalidRide)
	}
	return analysis.ParseZone(in.Zone)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
