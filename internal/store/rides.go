package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const rideColumns = `id, athlete_id, name, sport_type, start_date, start_date_local,
	moving_time, distance, total_elevation_gain, average_watts, weighted_average_watts,
	average_heartrate, max_heartrate, training_stress_score, zone, source`

// StravaRideID returns the ride id for a Strava activity
func StravaRideID(activityID int64) string {
	return SourceStrava + ":" + strconv.FormatInt(activityID, 10)
}

// NewManualRideID returns a fresh id for a hand-entered ride
func NewManualRideID() string {
	return SourceManual + ":" + uuid.NewString()
}

// UpsertRide inserts or updates a ride
func (s *Store) UpsertRide(ctx context.Context, r *Ride) error {
	if r.ID == "" {
		return errors.New("ride id is required")
	}
	ts := now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO rides (`+rideColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			sport_type = excluded.sport_type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			moving_time = excluded.moving_time,
			distance = excluded.distance,
			total_elevation_gain = excluded.total_elevation_gain,
			average_watts = excluded.average_watts,
			weighted_average_watts = excluded.weighted_average_watts,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			training_stress_score = excluded.training_stress_score,
			zone = excluded.zone,
			source = excluded.source,
			updated_at = excluded.updated_at
	`),
		r.ID, r.AthleteID, r.Name, r.SportType,
		r.StartDate.UTC().Format(time.RFC3339), r.StartDateLocal.Format(localTimeLayout),
		r.MovingTime, r.Distance, r.TotalElevationGain,
		r.AverageWatts, r.WeightedAverageWatts, r.AverageHeartrate, r.MaxHeartrate,
		r.TrainingStressScore, r.Zone, r.Source,
		ts, ts,
	)
	if err != nil {
		return fmt.Errorf("upserting ride %s: %w", r.ID, err)
	}
	return nil
}

// GetRide retrieves a ride by ID
func (s *Store) GetRide(ctx context.Context, id string) (*Ride, error) {
	var row rideRow
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+rideColumns+` FROM rides WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRide()
}

// DeleteRide removes a ride
func (s *Store) DeleteRide(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM rides WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRideNotFound
	}
	return nil
}

// RidesBetween returns rides whose local calendar date falls in [from, to],
// oldest first. Only the dates of from and to matter.
func (s *Store) RidesBetween(ctx context.Context, from, to time.Time) ([]Ride, error) {
	var rows []rideRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+rideColumns+`
		FROM rides
		WHERE start_date_local >= ? AND start_date_local < ?
		ORDER BY start_date_local ASC, id ASC
	`), from.Format(DateLayout), to.AddDate(0, 0, 1).Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying rides: %w", err)
	}
	return toRides(rows)
}

// RecentRides returns rides ordered by start date descending
func (s *Store) RecentRides(ctx context.Context, limit int) ([]Ride, error) {
	var rows []rideRow
	err := s.db.SelectContext(ctx, &rows, s.q(`
		SELECT `+rideColumns+`
		FROM rides
		ORDER BY start_date_local DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent rides: %w", err)
	}
	return toRides(rows)
}

// CountRides returns the number of stored rides
func (s *Store) CountRides(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM rides`); err != nil {
		return 0, err
	}
	return n, nil
}

// EarliestRideDate returns the local date of the first stored ride
func (s *Store) EarliestRideDate(ctx context.Context) (time.Time, error) {
	var first sql.NullString
	if err := s.db.GetContext(ctx, &first, `SELECT MIN(start_date_local) FROM rides`); err != nil {
		return time.Time{}, err
	}
	if !first.Valid {
		return time.Time{}, ErrRideNotFound
	}
	return parseLocal(first.String)
}

func toRides(rows []rideRow) ([]Ride, error) {
	rides := make([]Ride, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRide()
		if err != nil {
			return nil, err
		}
		rides = append(rides, *r)
	}
	return rides, nil
}

func (row rideRow) toRide() (*Ride, error) {
	start, err := time.Parse(time.RFC3339, row.StartDate)
	if err != nil {
		return nil, fmt.Errorf("ride %s: parsing start_date: %w", row.ID, err)
	}
	local, err := parseLocal(row.StartDateLocal)
	if err != nil {
		return nil, fmt.Errorf("ride %s: parsing start_date_local: %w", row.ID, err)
	}

	return &Ride{
		ID:                   row.ID,
		AthleteID:            row.AthleteID,
		Name:                 row.Name,
		SportType:            row.SportType,
		StartDate:            start,
		StartDateLocal:       local,
		MovingTime:           row.MovingTime,
		Distance:             row.Distance,
		TotalElevationGain:   row.TotalElevationGain,
		AverageWatts:         row.AverageWatts,
		WeightedAverageWatts: row.WeightedAverageWatts,
		AverageHeartrate:     row.AverageHeartrate,
		MaxHeartrate:         row.MaxHeartrate,
		TrainingStressScore:  row.TrainingStressScore,
		Zone:                 row.Zone,
		Source:               row.Source,
	}, nil
}

// parseLocal reads a wall-clock timestamp; the result carries UTC as a placeholder location
func parseLocal(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	if len(s) == len(DateLayout) {
		return time.Parse(DateLayout, s)
	}
	return time.Parse(localTimeLayout, s)
}
