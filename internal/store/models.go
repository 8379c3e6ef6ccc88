package store

import "time"

// Ride sources
const (
	SourceStrava = "strava"
	SourceManual = "manual"
)

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Ride represents one stored ride, either synced from Strava or entered by hand
type Ride struct {
	ID                   string    `json:"id"` // "strava:<id>" or "manual:<uuid>"
	AthleteID            int64     `json:"athlete_id"`
	Name                 string    `json:"name"`
	SportType            string    `json:"sport_type"`
	StartDate            time.Time `json:"start_date"`       // UTC
	StartDateLocal       time.Time `json:"start_date_local"` // wall clock of the ride, stored without offset
	MovingTime           int       `json:"moving_time"`      // seconds
	Distance             float64   `json:"distance"`         // meters
	TotalElevationGain   float64   `json:"total_elevation_gain"`
	AverageWatts         *float64  `json:"average_watts,omitempty"`
	WeightedAverageWatts *float64  `json:"weighted_average_watts,omitempty"`
	AverageHeartrate     *float64  `json:"average_heartrate,omitempty"`
	MaxHeartrate         *float64  `json:"max_heartrate,omitempty"`
	TrainingStressScore  *float64  `json:"training_stress_score,omitempty"`
	Zone                 string    `json:"zone,omitempty"`
	Source               string    `json:"source"`
}

// rideRow is the column layout of the rides table
type rideRow struct {
	ID                   string   `db:"id"`
	AthleteID            int64    `db:"athlete_id"`
	Name                 string   `db:"name"`
	SportType            string   `db:"sport_type"`
	StartDate            string   `db:"start_date"`
	StartDateLocal       string   `db:"start_date_local"`
	MovingTime           int      `db:"moving_time"`
	Distance             float64  `db:"distance"`
	TotalElevationGain   float64  `db:"total_elevation_gain"`
	AverageWatts         *float64 `db:"average_watts"`
	WeightedAverageWatts *float64 `db:"weighted_average_watts"`
	AverageHeartrate     *float64 `db:"average_heartrate"`
	MaxHeartrate         *float64 `db:"max_heartrate"`
	TrainingStressScore  *float64 `db:"training_stress_score"`
	Zone                 string   `db:"zone"`
	Source               string   `db:"source"`
}

// Snapshot is the persisted load picture for one day
type Snapshot struct {
	Date            time.Time `json:"date"`
	TSS             float64   `json:"tss"`
	CTL             float64   `json:"ctl"`
	ATL             float64   `json:"atl"`
	TSB             float64   `json:"tsb"`
	WeeklyTSS       float64   `json:"weekly_tss"`
	MonthlyTSS      float64   `json:"monthly_tss"`
	Monotony        float64   `json:"monotony"`
	Strain          float64   `json:"strain"`
	FormStatus      string    `json:"form_status"`
	TrainingBalance string    `json:"training_balance"`
	ComputedAt      time.Time `json:"computed_at"`
}

// snapshotRow is the column layout of the fitness_snapshots table
type snapshotRow struct {
	Date            string  `db:"date"` // YYYY-MM-DD
	TSS             float64 `db:"tss"`
	CTL             float64 `db:"ctl"`
	ATL             float64 `db:"atl"`
	TSB             float64 `db:"tsb"`
	WeeklyTSS       float64 `db:"weekly_tss"`
	MonthlyTSS      float64 `db:"monthly_tss"`
	Monotony        float64 `db:"monotony"`
	Strain          float64 `db:"strain"`
	FormStatus      string  `db:"form_status"`
	TrainingBalance string  `db:"training_balance"`
	ComputedAt      string  `db:"computed_at"`
}

// Column layouts for dates stored as text
const (
	DateLayout      = "2006-01-02"
	localTimeLayout = "2006-01-02T15:04:05"
)
