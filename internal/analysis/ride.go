package analysis

import "time"

// RideSample is one completed ride as seen by the load model
type RideSample struct {
	Date                time.Time // calendar day of the ride (local)
	DurationSeconds     float64
	DistanceKm          float64
	ElevationGainM      float64
	TrainingStressScore *float64 // authoritative when > 0
	Zone                Zone

	// Carried for stress estimation upstream; the load model ignores them
	AveragePowerW    *float64
	AverageHeartRate *float64
}

// DailyLoad is the summed training stress of one calendar day
type DailyLoad struct {
	Date time.Time `json:"date"`
	TSS  float64   `json:"tss"`
}

// Day truncates t to its calendar date as seen in t's location. The result
// is always midnight UTC, so compare it only with other Day values and never
// with a local-zone midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Values returns the TSS column of a daily series
func Values(series []DailyLoad) []float64 {
	out := make([]float64, len(series))
	for i, dl := range series {
		out[i] = dl.TSS
	}
	return out
}
