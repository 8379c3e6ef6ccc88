package analysis

import (
	"math"
	"time"
)

// Engine computes fitness, fatigue and form from daily training stress.
// It holds only its parameters and is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an engine; unset params fall back to the defaults
func NewEngine(p Params) *Engine {
	return &Engine{params: p.withDefaults()}
}

// Params returns the effective model parameters
func (e *Engine) Params() Params {
	return e.params
}

// TrainingMetrics is the load picture as of the last day of a series
type TrainingMetrics struct {
	Date       time.Time `json:"date"`
	CTL        float64   `json:"ctl"` // Chronic Training Load - "Fitness"
	ATL        float64   `json:"atl"` // Acute Training Load - "Fatigue"
	TSB        float64   `json:"tsb"` // Training Stress Balance (CTL - ATL) - "Form"
	WeeklyTSS  float64   `json:"weekly_tss"`
	MonthlyTSS float64   `json:"monthly_tss"`
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time `json:"date"`
	TSS  float64   `json:"tss"`
	CTL  float64   `json:"ctl"`
	ATL  float64   `json:"atl"`
	TSB  float64   `json:"tsb"`
}

// EstimateTSS returns the ride's stress score, or an approximation when it has none.
//
// The fallback assumes TSSPerHour of moderate riding plus ElevationUnitTSS for every
// ElevationUnitM climbed. It is a deterministic placeholder, not a physiological model.
func (e *Engine) EstimateTSS(ride RideSample) float64 {
	if ride.TrainingStressScore != nil {
		if tss := sanitize(*ride.TrainingStressScore); tss > 0 {
			return tss
		}
	}

	base := sanitize(ride.DurationSeconds) / 3600 * e.params.TSSPerHour
	elevation := sanitize(ride.ElevationGainM) / e.params.ElevationUnitM * e.params.ElevationUnitTSS
	return math.Round(base + elevation)
}

// BuildDailySeries sums ride stress per calendar day over [start, end].
// Every day in the window is present; days without rides carry zero.
func (e *Engine) BuildDailySeries(rides []RideSample, start, end time.Time) []DailyLoad {
	startDay, endDay := Day(start), Day(end)
	if endDay.Before(startDay) {
		return []DailyLoad{}
	}

	loadMap := make(map[time.Time]float64)
	for _, r := range rides {
		loadMap[Day(r.Date)] += e.EstimateTSS(r)
	}

	series := make([]DailyLoad, 0, daysBetween(startDay, endDay)+1)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		series = append(series, DailyLoad{Date: d, TSS: loadMap[d]})
	}
	return series
}

// CalculateCTL is the exponentially weighted load over the whole series (oldest first)
func (e *Engine) CalculateCTL(series []float64) float64 {
	return weightedLoad(series, e.params.CTLTimeConstant)
}

// CalculateATL applies the same weighting to the trailing ATL window only
func (e *Engine) CalculateATL(series []float64) float64 {
	return weightedLoad(trailing(series, e.params.ATLTimeConstant), e.params.ATLTimeConstant)
}

// CalculateTSB returns form: fitness minus fatigue
func CalculateTSB(ctl, atl float64) float64 {
	return ctl - atl
}

// CalculateMetrics summarises a gapless daily series as of its final day
func (e *Engine) CalculateMetrics(series []DailyLoad) TrainingMetrics {
	if len(series) == 0 {
		return TrainingMetrics{}
	}

	values := Values(series)
	ctl := e.CalculateCTL(values)
	atl := e.CalculateATL(values)

	return TrainingMetrics{
		Date:       series[len(series)-1].Date,
		CTL:        ctl,
		ATL:        atl,
		TSB:        CalculateTSB(ctl, atl),
		WeeklyTSS:  sum(trailing(values, 7)),
		MonthlyTSS: sum(trailing(values, 30)),
	}
}

// FitnessTrend computes CTL/ATL/TSB for every day of the series,
// each day using only the history up to and including it
func (e *Engine) FitnessTrend(series []DailyLoad) []FitnessMetrics {
	if len(series) == 0 {
		return nil
	}

	values := Values(series)
	trend := make([]FitnessMetrics, len(series))
	for i := range series {
		prefix := values[:i+1]
		ctl := e.CalculateCTL(prefix)
		atl := e.CalculateATL(prefix)
		trend[i] = FitnessMetrics{
			Date: series[i].Date,
			TSS:  series[i].TSS,
			CTL:  ctl,
			ATL:  atl,
			TSB:  CalculateTSB(ctl, atl),
		}
	}
	return trend
}

// weightedLoad: weight(i) = exp(-decay*(n-1-i)), result = round(sum(tss*weight) * decay)
func weightedLoad(series []float64, timeConstant int) float64 {
	if len(series) == 0 || timeConstant <= 0 {
		return 0
	}

	decay := 1.0 / float64(timeConstant)
	n := len(series)
	var total float64
	for i, tss := range series {
		total += sanitize(tss) * math.Exp(-decay*float64(n-1-i))
	}
	return math.Round(total * decay)
}

func trailing(values []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += sanitize(v)
	}
	return total
}

func daysBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}
