package service

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainload/internal/analysis"
	"trainload/internal/store"
)

type invalidations struct {
	n int
}

func (i *invalidations) Invalidate(context.Context) {
	i.n++
}

func testAthlete() analysis.Athlete {
	return analysis.Athlete{FTP: 200, Zones: analysis.DefaultZones()}
}

func TestAddManualRide(t *testing.T) {
	s := setupStore(t)
	inv := &invalidations{}
	svc := NewRideService(s, testAthlete(), inv)
	ctx := context.Background()

	ride, err := svc.Add(ctx, ManualRide{
		Date:                time.Date(2024, 4, 2, 18, 0, 0, 0, time.UTC),
		Name:                "  Club run  ",
		DurationSeconds:     5400,
		DistanceKm:          45.5,
		ElevationGainM:      420,
		TrainingStressScore: floatPtr(95),
		Zone:                "Tempo",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ride.ID, "manual:"))
	assert.Equal(t, "Club run", ride.Name)
	assert.Equal(t, store.SourceManual, ride.Source)
	assert.Equal(t, "tempo", ride.Zone)
	assert.Equal(t, 1, inv.n)

	got, err := svc.Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 5400, got.MovingTime)
	assert.Equal(t, 45500.0, got.Distance)
	assert.Equal(t, 95.0, *got.TrainingStressScore)
	assert.Equal(t, "2024-04-02", got.StartDateLocal.Format(store.DateLayout))
}

func TestAddManualRideDerivesStressFromPower(t *testing.T) {
	svc := NewRideService(setupStore(t), testAthlete(), nil)

	ride, err := svc.Add(context.Background(), ManualRide{
		Date:            time.Date(2024, 4, 2, 7, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AveragePowerW:   floatPtr(200),
	})
	require.NoError(t, err)

	require.NotNil(t, ride.TrainingStressScore)
	assert.InDelta(t, 100, *ride.TrainingStressScore, 1e-9)
	assert.Equal(t, string(analysis.ZoneThreshold), ride.Zone)
	assert.Equal(t, "Manual ride", ride.Name)
}

func TestAddManualRideKeepsGivenZone(t *testing.T) {
	svc := NewRideService(setupStore(t), testAthlete(), nil)

	ride, err := svc.Add(context.Background(), ManualRide{
		Date:            time.Date(2024, 4, 2, 7, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
		AveragePowerW:   floatPtr(200),
		Zone:            "endurance",
	})
	require.NoError(t, err)

	assert.Equal(t, "endurance", ride.Zone)
	require.NotNil(t, ride.TrainingStressScore)
}

func TestAddManualRideWithoutIntensityLeavesEstimate(t *testing.T) {
	svc := NewRideService(setupStore(t), testAthlete(), nil)

	ride, err := svc.Add(context.Background(), ManualRide{
		Date:            time.Date(2024, 4, 2, 7, 0, 0, 0, time.UTC),
		DurationSeconds: 3600,
	})
	require.NoError(t, err)

	assert.Nil(t, ride.TrainingStressScore)
	assert.Empty(t, ride.Zone)
}

func TestAddManualRideValidation(t *testing.T) {
	day := time.Date(2024, 4, 2, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ride ManualRide
		want error
	}{
		{"missing date", ManualRide{DurationSeconds: 3600}, ErrInvalidRide},
		{"zero duration", ManualRide{Date: day}, ErrInvalidRide},
		{"NaN duration", ManualRide{Date: day, DurationSeconds: math.NaN()}, ErrInvalidRide},
		{"negative distance", ManualRide{Date: day, DurationSeconds: 60, DistanceKm: -1}, ErrInvalidRide},
		{"negative elevation", ManualRide{Date: day, DurationSeconds: 60, ElevationGainM: -5}, ErrInvalidRide},
		{"negative tss", ManualRide{Date: day, DurationSeconds: 60, TrainingStressScore: floatPtr(-1)}, ErrInvalidRide},
		{"unknown zone", ManualRide{Date: day, DurationSeconds: 60, Zone: "zone9"}, analysis.ErrUnknownZone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupStore(t)
			inv := &invalidations{}
			svc := NewRideService(s, testAthlete(), inv)

			_, err := svc.Add(context.Background(), tt.ride)
			assert.ErrorIs(t, err, tt.want)

			n, err := s.CountRides(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Zero(t, inv.n)
		})
	}
}

func TestDeleteRide(t *testing.T) {
	s := setupStore(t)
	inv := &invalidations{}
	svc := NewRideService(s, testAthlete(), inv)
	ctx := context.Background()

	require.NoError(t, s.UpsertRide(ctx, hourRide("strava:1", date(2024, 1, 1), "")))

	require.NoError(t, svc.Delete(ctx, "strava:1"))
	assert.Equal(t, 1, inv.n)

	err := svc.Delete(ctx, "strava:1")
	assert.ErrorIs(t, err, store.ErrRideNotFound)
	assert.Equal(t, 1, inv.n)
}

func TestRecentRides(t *testing.T) {
	s := setupStore(t)
	svc := NewRideService(s, testAthlete(), nil)
	ctx := context.Background()

	seedDaily(t, s, date(2024, 1, 1), date(2024, 1, 15), "")

	rides, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rides, RecentRidesLimit)
	assert.Equal(t, "2024-01-15", rides[0].StartDateLocal.Format(store.DateLayout))

	rides, err = svc.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rides, 3)
}
