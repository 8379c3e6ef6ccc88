package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"trainload/internal/analysis"
	"trainload/internal/cache"
	"trainload/internal/store"
)

// ErrInvalidRange is returned when a date range is reversed or too long
var ErrInvalidRange = errors.New("invalid date range")

// RideReader is the part of the ride store that reports read from
type RideReader interface {
	RidesBetween(ctx context.Context, from, to time.Time) ([]store.Ride, error)
}

// Windows are the day counts a report looks back over
type Windows struct {
	HistoryDays    int // rides feeding CTL/ATL
	ZoneWindowDays int // rides feeding the zone distribution
	ChartDays      int // days of trend returned with a report
}

func (w Windows) withDefaults() Windows {
	if w.HistoryDays <= 0 {
		w.HistoryDays = DefaultHistoryDays
	}
	if w.ZoneWindowDays <= 0 {
		w.ZoneWindowDays = DefaultZoneWindowDays
	}
	if w.ChartDays <= 0 {
		w.ChartDays = DefaultChartDays
	}
	return w
}

// LoadService turns stored rides into training load reports
type LoadService struct {
	rides   RideReader
	engine  *analysis.Engine
	windows Windows
	cache   cache.Cache
	now     func() time.Time
}

// LoadOption configures a LoadService
type LoadOption func(*LoadService)

// WithCache caches reports; nil disables caching
func WithCache(c cache.Cache) LoadOption {
	return func(s *LoadService) {
		s.cache = c
	}
}

// WithClock overrides the clock used to decide what "today" is
func WithClock(now func() time.Time) LoadOption {
	return func(s *LoadService) {
		s.now = now
	}
}

// NewLoadService creates a load service over a ride store
func NewLoadService(rides RideReader, engine *analysis.Engine, windows Windows, opts ...LoadOption) *LoadService {
	s := &LoadService{
		rides:   rides,
		engine:  engine,
		windows: windows.withDefaults(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadReport is the training load picture as of one day
type LoadReport struct {
	AsOf            time.Time                   `json:"as_of"`
	Metrics         analysis.TrainingMetrics    `json:"metrics"`
	Form            analysis.FormInterpretation `json:"form"`
	Zones           analysis.ZoneSummary        `json:"zones"`
	TodayTSS        float64                     `json:"today_tss"`
	Monotony        float64                     `json:"monotony"`
	Strain          float64                     `json:"strain"`
	MonotonyWarning bool                        `json:"monotony_warning"`
	RideCount       int                         `json:"ride_count"`
	Trend           []analysis.FitnessMetrics   `json:"trend,omitempty"`

	// Degraded is set when the ride history could not be read and the
	// report was computed as if there were no rides
	Degraded bool `json:"degraded,omitempty"`
}

// Windows returns the effective report windows
func (s *LoadService) Windows() Windows {
	return s.windows
}

// Engine returns the model the service evaluates with
func (s *LoadService) Engine() *analysis.Engine {
	return s.engine
}

// Today returns the current calendar day
func (s *LoadService) Today() time.Time {
	return analysis.Day(s.now())
}

// Report builds the load report as of asOf's calendar day.
// A ride store failure does not fail the report: it is logged and the
// report is computed from no rides, flagged Degraded.
func (s *LoadService) Report(ctx context.Context, asOf time.Time) (*LoadReport, error) {
	day := analysis.Day(asOf)
	key := "report:" + day.Format(store.DateLayout)

	// gen is taken before the rides are read so that a report computed
	// from rides an Invalidate has since superseded is never stored
	cacheable := false
	var gen int64
	if s.cache != nil {
		var cached LoadReport
		ok, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Report cache read failed")
		} else if ok {
			return &cached, nil
		}
		if gen, err = s.cache.Generation(ctx); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Report cache generation unavailable")
		} else {
			cacheable = true
		}
	}

	degraded := false
	samples, err := s.samples(ctx, day, day, s.windows.ChartDays-1)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error().Err(err).Str("as_of", day.Format(store.DateLayout)).Msg("Ride history unavailable, reporting without rides")
		samples = nil
		degraded = true
	}

	report := s.reportFrom(samples, day, true)
	report.Degraded = degraded

	if cacheable && !degraded {
		if err := cache.SetJSON(ctx, s.cache, gen, key, report); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Report cache write failed")
		}
	}
	return report, nil
}

// Series returns the gapless daily TSS series for [from, to]
func (s *LoadService) Series(ctx context.Context, from, to time.Time) ([]analysis.DailyLoad, error) {
	from, to = analysis.Day(from), analysis.Day(to)
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	rides, err := s.rides.RidesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading rides: %w", err)
	}
	return s.engine.BuildDailySeries(ToSamples(rides), from, to), nil
}

// Trend returns CTL/ATL/TSB for every day in [from, to], each day evaluated
// over the same history window a report for that day would use
func (s *LoadService) Trend(ctx context.Context, from, to time.Time) ([]analysis.FitnessMetrics, error) {
	from, to = analysis.Day(from), analysis.Day(to)
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	samples, err := s.samples(ctx, from, to, 0)
	if err != nil {
		return nil, err
	}
	series := s.engine.BuildDailySeries(samples, s.historyStart(from), to)
	return s.rollingTrend(series, s.windows.HistoryDays-1), nil
}

// Zones returns the zone distribution over the days ending on asOf;
// days <= 0 uses the configured zone window
func (s *LoadService) Zones(ctx context.Context, asOf time.Time, days int) (analysis.ZoneSummary, error) {
	if days <= 0 {
		days = s.windows.ZoneWindowDays
	}
	if days > MaxRangeDays {
		return analysis.ZoneSummary{}, fmt.Errorf("%w: %d days", ErrInvalidRange, days)
	}

	day := analysis.Day(asOf)
	from := day.AddDate(0, 0, -(days - 1))
	rides, err := s.rides.RidesBetween(ctx, from, day)
	if err != nil {
		return analysis.ZoneSummary{}, fmt.Errorf("reading rides: %w", err)
	}
	return analysis.ClassifyZoneDistribution(ToSamples(rides)), nil
}

// Invalidate drops cached reports after rides change
func (s *LoadService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Report cache invalidation failed")
	}
}

// samples reads the rides needed to evaluate every day in [from, to],
// plus extra days of history before the first window
func (s *LoadService) samples(ctx context.Context, from, to time.Time, extra int) ([]analysis.RideSample, error) {
	start := s.historyStart(from).AddDate(0, 0, -extra)
	rides, err := s.rides.RidesBetween(ctx, start, to)
	if err != nil {
		return nil, fmt.Errorf("reading rides: %w", err)
	}
	return ToSamples(rides), nil
}

func (s *LoadService) historyStart(day time.Time) time.Time {
	return day.AddDate(0, 0, -(s.windows.HistoryDays - 1))
}

// reportFrom evaluates one day from already loaded rides
func (s *LoadService) reportFrom(samples []analysis.RideSample, day time.Time, withTrend bool) *LoadReport {
	historyStart := s.historyStart(day)
	seriesStart := historyStart
	if withTrend {
		seriesStart = historyStart.AddDate(0, 0, -(s.windows.ChartDays - 1))
	}

	series := s.engine.BuildDailySeries(samples, seriesStart, day)
	history := series[len(series)-s.windows.HistoryDays:]
	values := analysis.Values(history)

	metrics := s.engine.CalculateMetrics(history)
	monotony := analysis.CalculateMonotony(lastN(values, WeekDays))
	zoneStart := day.AddDate(0, 0, -(s.windows.ZoneWindowDays - 1))

	report := &LoadReport{
		AsOf:            day,
		Metrics:         metrics,
		Form:            analysis.InterpretTSB(metrics.TSB),
		Zones:           analysis.ClassifyZoneDistribution(between(samples, zoneStart, day)),
		TodayTSS:        values[len(values)-1],
		Monotony:        monotony,
		Strain:          analysis.Strain(values),
		MonotonyWarning: s.engine.MonotonyWarning(monotony),
		RideCount:       len(between(samples, historyStart, day)),
	}
	if withTrend {
		report.Trend = s.rollingTrend(series, len(series)-s.windows.ChartDays)
	}
	return report
}

// rollingTrend evaluates series[first:], each day over the history window ending on it
func (s *LoadService) rollingTrend(series []analysis.DailyLoad, first int) []analysis.FitnessMetrics {
	if first < 0 {
		first = 0
	}
	if first >= len(series) {
		return []analysis.FitnessMetrics{}
	}

	trend := make([]analysis.FitnessMetrics, 0, len(series)-first)
	for i := first; i < len(series); i++ {
		lo := i - (s.windows.HistoryDays - 1)
		if lo < 0 {
			lo = 0
		}
		m := s.engine.CalculateMetrics(series[lo : i+1])
		trend = append(trend, analysis.FitnessMetrics{
			Date: m.Date,
			TSS:  series[i].TSS,
			CTL:  m.CTL,
			ATL:  m.ATL,
			TSB:  m.TSB,
		})
	}
	return trend
}

// between keeps the samples whose calendar day falls in [from, to]
func between(samples []analysis.RideSample, from, to time.Time) []analysis.RideSample {
	var out []analysis.RideSample
	for _, r := range samples {
		d := analysis.Day(r.Date)
		if !d.Before(from) && !d.After(to) {
			out = append(out, r)
		}
	}
	return out
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func checkRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from.Format(store.DateLayout), to.Format(store.DateLayout))
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days, MaxRangeDays)
	}
	return nil
}
