package strava

import (
	"fmt"
	"time"
)

// Activity represents a Strava activity summary from /athlete/activities
type Activity struct {
	ID                   int64     `json:"id"`
	Athlete              Athlete   `json:"athlete"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	SportType            string    `json:"sport_type"`
	StartDate            time.Time `json:"start_date"`
	StartDateLocal       time.Time `json:"start_date_local"` // wall clock, Strava marks it Z
	Timezone             string    `json:"timezone"`
	Distance             float64   `json:"distance"`             // meters
	MovingTime           int       `json:"moving_time"`          // seconds
	ElapsedTime          int       `json:"elapsed_time"`         // seconds
	TotalElevationGain   float64   `json:"total_elevation_gain"` // meters
	AverageSpeed         float64   `json:"average_speed"`        // m/s
	AverageWatts         float64   `json:"average_watts"`
	WeightedAverageWatts float64   `json:"weighted_average_watts"`
	Kilojoules           float64   `json:"kilojoules"`
	DeviceWatts          bool      `json:"device_watts"`
	AverageHeartrate     float64   `json:"average_heartrate"` // bpm
	MaxHeartrate         float64   `json:"max_heartrate"`     // bpm
	HasHeartrate         bool      `json:"has_heartrate"`
	Trainer              bool      `json:"trainer"`
}

// Athlete represents a Strava athlete (minimal info in activity response)
type Athlete struct {
	ID int64 `json:"id"`
}

// cyclingSportTypes are the sport types counted as rides
var cyclingSportTypes = map[string]bool{
	"Ride":              true,
	"VirtualRide":       true,
	"GravelRide":        true,
	"MountainBikeRide":  true,
	"EBikeRide":         true,
	"EMountainBikeRide": true,
	"Velomobile":        true,
}

// IsCycling reports whether the activity is a ride of any kind
func (a Activity) IsCycling() bool {
	if a.SportType != "" {
		return cyclingSportTypes[a.SportType]
	}
	return cyclingSportTypes[a.Type]
}

// Sport returns sport_type, falling back to the legacy type field
func (a Activity) Sport() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

// HasPower reports whether a power meter recorded the ride
func (a Activity) HasPower() bool {
	return a.DeviceWatts && (a.AverageWatts > 0 || a.WeightedAverageWatts > 0)
}

// APIError is a non-200 response from the Strava API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
