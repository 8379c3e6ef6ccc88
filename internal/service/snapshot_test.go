package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainload/internal/analysis"
	"trainload/internal/store"
)

func TestCaptureSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	asOf := date(2024, 3, 1)
	seedDaily(t, s, asOf.AddDate(0, 0, -41), asOf, "endurance")

	now := time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)
	load := newLoadService(s, WithClock(func() time.Time { return now }))
	svc := NewSnapshotService(load, s)

	snap, err := svc.Capture(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 32.0, snap.CTL)
	assert.Equal(t, 34.0, snap.ATL)
	assert.Equal(t, -2.0, snap.TSB)
	assert.Equal(t, 50.0, snap.TSS)
	assert.Equal(t, string(analysis.FormBalanced), snap.FormStatus)
	assert.Equal(t, string(analysis.BalanceBaseHeavy), snap.TrainingBalance)

	stored, err := s.GetSnapshot(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, snap.CTL, stored.CTL)
	assert.Equal(t, snap.Monotony, stored.Monotony)
	assert.True(t, now.Equal(stored.ComputedAt))
}

func TestCaptureToday(t *testing.T) {
	s := setupStore(t)
	now := time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)
	svc := NewSnapshotService(newLoadService(s, WithClock(func() time.Time { return now })), s)

	snap, err := svc.CaptureToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 2), snap.Date)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 2), latest.Date)
}

func TestCaptureRefusesDegradedReports(t *testing.T) {
	s := setupStore(t)
	svc := NewSnapshotService(newLoadService(&failingReader{}), s)

	_, err := svc.Capture(context.Background(), date(2024, 3, 1))
	assert.ErrorIs(t, err, ErrDegraded)

	_, err = s.LatestSnapshot(context.Background())
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)
}

func TestBackfillMatchesCapture(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	start := date(2024, 1, 1)
	for i := 0; i < 50; i += 2 {
		require.NoError(t, s.UpsertRide(ctx, hourRide(store.StravaRideID(int64(i)), start.AddDate(0, 0, i), "tempo")))
	}

	load := newLoadService(s)
	svc := NewSnapshotService(load, s)

	from, to := start.AddDate(0, 0, 30), start.AddDate(0, 0, 39)
	n, err := svc.Backfill(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	snaps, err := svc.Between(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, snaps, 10)

	for _, snap := range snaps {
		report, err := load.Report(ctx, snap.Date)
		require.NoError(t, err)
		assert.Equal(t, report.Metrics.CTL, snap.CTL, snap.Date)
		assert.Equal(t, report.Metrics.ATL, snap.ATL, snap.Date)
		assert.Equal(t, report.Metrics.TSB, snap.TSB, snap.Date)
		assert.Equal(t, report.Metrics.WeeklyTSS, snap.WeeklyTSS, snap.Date)
		assert.Equal(t, report.Strain, snap.Strain, snap.Date)
		assert.Equal(t, string(report.Zones.Balance), snap.TrainingBalance, snap.Date)
	}
}

func TestBackfillRejectsBadRange(t *testing.T) {
	svc := NewSnapshotService(newLoadService(setupStore(t)), setupStore(t))

	_, err := svc.Backfill(context.Background(), date(2024, 2, 1), date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.Between(context.Background(), date(2024, 2, 1), date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBackfillStopsOnStoreFailure(t *testing.T) {
	s := setupStore(t)
	svc := NewSnapshotService(newLoadService(&failingReader{}), s)

	n, err := svc.Backfill(context.Background(), date(2024, 1, 1), date(2024, 1, 5))
	assert.Error(t, err)
	assert.Zero(t, n)
}
