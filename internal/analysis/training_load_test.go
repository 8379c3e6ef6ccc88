package analysis

import (
	"math"
	"testing"
	"time"
)

func floatPtr(f float64) *float64 {
	return &f
}

func constantSeries(n int, tss float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = tss
	}
	return s
}

func TestNewEngineDefaults(t *testing.T) {
	got := NewEngine(Params{}).Params()
	if got != DefaultParams() {
		t.Errorf("NewEngine(Params{}).Params() = %+v, want %+v", got, DefaultParams())
	}

	custom := NewEngine(Params{CTLTimeConstant: 28, TSSPerHour: math.NaN()}).Params()
	if custom.CTLTimeConstant != 28 {
		t.Errorf("CTLTimeConstant = %d, want 28", custom.CTLTimeConstant)
	}
	if custom.TSSPerHour != DefaultTSSPerHour {
		t.Errorf("TSSPerHour = %v, want default %v", custom.TSSPerHour, DefaultTSSPerHour)
	}
}

func TestEstimateTSS(t *testing.T) {
	engine := NewEngine(DefaultParams())

	tests := []struct {
		name     string
		ride     RideSample
		expected float64
	}{
		{
			name:     "one hour with 300m climbing",
			ride:     RideSample{DurationSeconds: 3600, ElevationGainM: 300},
			expected: 60,
		},
		{
			name:     "authoritative score wins",
			ride:     RideSample{DurationSeconds: 7200, ElevationGainM: 2000, TrainingStressScore: floatPtr(120)},
			expected: 120,
		},
		{
			name:     "zero score falls back to estimate",
			ride:     RideSample{DurationSeconds: 3600, TrainingStressScore: floatPtr(0)},
			expected: 50,
		},
		{
			name:     "NaN score falls back to estimate",
			ride:     RideSample{DurationSeconds: 3600, TrainingStressScore: floatPtr(math.NaN())},
			expected: 50,
		},
		{
			name:     "all-zero ride",
			ride:     RideSample{},
			expected: 0,
		},
		{
			name:     "half hour with 150m rounds",
			ride:     RideSample{DurationSeconds: 1800, ElevationGainM: 150},
			expected: 30,
		},
		{
			name:     "rounds to nearest",
			ride:     RideSample{DurationSeconds: 4000},
			expected: 56, // 55.56
		},
		{
			name:     "negative and NaN fields coerce to zero",
			ride:     RideSample{DurationSeconds: -3600, ElevationGainM: math.NaN()},
			expected: 0,
		},
		{
			name:     "infinite duration coerces to zero",
			ride:     RideSample{DurationSeconds: math.Inf(1), ElevationGainM: 600},
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.EstimateTSS(tt.ride)
			if result != tt.expected {
				t.Errorf("EstimateTSS() = %v, want %v", result, tt.expected)
			}
			if result < 0 || math.IsNaN(result) {
				t.Errorf("EstimateTSS() = %v, must be a non-negative number", result)
			}
		})
	}
}

func TestEstimateTSSCustomParams(t *testing.T) {
	engine := NewEngine(Params{TSSPerHour: 60, ElevationUnitM: 100, ElevationUnitTSS: 5})

	result := engine.EstimateTSS(RideSample{DurationSeconds: 3600, ElevationGainM: 300})
	if result != 75 {
		t.Errorf("EstimateTSS() = %v, want 75", result)
	}
}

func TestBuildDailySeries(t *testing.T) {
	engine := NewEngine(DefaultParams())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 9)

	tests := []struct {
		name    string
		rides   []RideSample
		start   time.Time
		end     time.Time
		checkFn func(t *testing.T, series []DailyLoad)
	}{
		{
			name:  "no rides - zero filled",
			rides: nil,
			start: start,
			end:   end,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if len(series) != 10 {
					t.Fatalf("expected 10 days, got %d", len(series))
				}
				for i, dl := range series {
					if dl.TSS != 0 {
						t.Errorf("day %d TSS = %v, want 0", i, dl.TSS)
					}
				}
			},
		},
		{
			name: "gaps are filled and dates consecutive",
			rides: []RideSample{
				{Date: start, TrainingStressScore: floatPtr(80)},
				{Date: start.AddDate(0, 0, 5), TrainingStressScore: floatPtr(40)},
			},
			start: start,
			end:   end,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if len(series) != 10 {
					t.Fatalf("expected 10 days, got %d", len(series))
				}
				for i, dl := range series {
					want := start.AddDate(0, 0, i)
					if !dl.Date.Equal(want) {
						t.Errorf("day %d date = %v, want %v", i, dl.Date, want)
					}
				}
				if series[0].TSS != 80 || series[5].TSS != 40 || series[3].TSS != 0 {
					t.Errorf("unexpected loads: %v", Values(series))
				}
			},
		},
		{
			name: "multiple rides on one day are summed",
			rides: []RideSample{
				{Date: start.Add(7 * time.Hour), TrainingStressScore: floatPtr(50)},
				{Date: start.Add(18 * time.Hour), DurationSeconds: 3600, ElevationGainM: 300},
			},
			start: start,
			end:   start,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if len(series) != 1 {
					t.Fatalf("expected 1 day, got %d", len(series))
				}
				if series[0].TSS != 110 {
					t.Errorf("TSS = %v, want 110", series[0].TSS)
				}
			},
		},
		{
			name: "rides outside the window are ignored",
			rides: []RideSample{
				{Date: start.AddDate(0, 0, -1), TrainingStressScore: floatPtr(100)},
				{Date: end.AddDate(0, 0, 1), TrainingStressScore: floatPtr(100)},
			},
			start: start,
			end:   end,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if total := sum(Values(series)); total != 0 {
					t.Errorf("total TSS = %v, want 0", total)
				}
			},
		},
		{
			name: "ride uses its own local calendar date",
			rides: []RideSample{
				{Date: time.Date(2024, 1, 3, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)), TrainingStressScore: floatPtr(70)},
			},
			start: start,
			end:   end,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if series[2].TSS != 70 {
					t.Errorf("Jan 3 TSS = %v, want 70 (series %v)", series[2].TSS, Values(series))
				}
			},
		},
		{
			name:  "window bounds with time of day are inclusive",
			rides: nil,
			start: start.Add(22 * time.Hour),
			end:   end.Add(1 * time.Hour),
			checkFn: func(t *testing.T, series []DailyLoad) {
				if len(series) != 10 {
					t.Errorf("expected 10 days, got %d", len(series))
				}
			},
		},
		{
			name:  "end before start yields empty series",
			rides: []RideSample{{Date: start, TrainingStressScore: floatPtr(10)}},
			start: end,
			end:   start,
			checkFn: func(t *testing.T, series []DailyLoad) {
				if series == nil || len(series) != 0 {
					t.Errorf("expected empty non-nil series, got %v", series)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, engine.BuildDailySeries(tt.rides, tt.start, tt.end))
		})
	}
}

func TestBuildDailySeriesLengthMatchesWindow(t *testing.T) {
	engine := NewEngine(DefaultParams())
	start := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	rides := []RideSample{{Date: start.AddDate(0, 0, 3), DurationSeconds: 3600}}

	for days := 0; days < 400; days += 37 {
		end := start.AddDate(0, 0, days)
		series := engine.BuildDailySeries(rides, start, end)
		if len(series) != days+1 {
			t.Errorf("window of %d days produced %d entries", days+1, len(series))
		}
	}
}

func TestCalculateCTL(t *testing.T) {
	engine := NewEngine(DefaultParams())

	tests := []struct {
		name     string
		series   []float64
		expected float64
		delta    float64
	}{
		{"empty series", nil, 0, 0},
		{"single day", []float64{100}, 2, 0}, // 100/42
		{"constant 50 for 42 days", constantSeries(42, 50), 32, 0},
		{"constant 50 converges over long history", constantSeries(420, 50), 50, 1},
		{"NaN entries count as zero", []float64{math.NaN(), 100}, 2, 0},
		{"all zero", constantSeries(90, 0), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CalculateCTL(tt.series)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("CalculateCTL() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestCalculateCTLRecentDaysWeighMore(t *testing.T) {
	engine := NewEngine(DefaultParams())

	early := append([]float64{300}, constantSeries(41, 0)...)
	late := append(constantSeries(41, 0), 300)

	if engine.CalculateCTL(late) <= engine.CalculateCTL(early) {
		t.Errorf("recent load should weigh more: late=%v early=%v",
			engine.CalculateCTL(late), engine.CalculateCTL(early))
	}
}

func TestCalculateATL(t *testing.T) {
	engine := NewEngine(DefaultParams())

	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{"empty series", nil, 0},
		{"single day", []float64{100}, 14}, // 100/7
		{"constant 50 for a week", constantSeries(7, 50), 34},
		{"only trailing week counts", append(constantSeries(30, 500), constantSeries(7, 50)...), 34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CalculateATL(tt.series)
			if result != tt.expected {
				t.Errorf("CalculateATL() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCalculateATLAcceptsPreslicedSeries(t *testing.T) {
	engine := NewEngine(DefaultParams())
	full := []float64{10, 200, 30, 0, 90, 45, 60, 120, 0, 75}

	if engine.CalculateATL(full) != engine.CalculateATL(full[len(full)-7:]) {
		t.Errorf("ATL of full series %v != ATL of trailing week %v",
			engine.CalculateATL(full), engine.CalculateATL(full[len(full)-7:]))
	}
}

func TestCalculateTSB(t *testing.T) {
	tests := []struct {
		ctl, atl, expected float64
	}{
		{80, 50, 30},
		{50, 80, -30},
		{0, 0, 0},
		{42.5, 40, 2.5},
	}

	for _, tt := range tests {
		if result := CalculateTSB(tt.ctl, tt.atl); result != tt.expected {
			t.Errorf("CalculateTSB(%v, %v) = %v, want %v", tt.ctl, tt.atl, result, tt.expected)
		}
	}
}

func TestCalculateMetrics(t *testing.T) {
	engine := NewEngine(DefaultParams())
	baseDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	makeSeries := func(days int, tss float64) []DailyLoad {
		series := make([]DailyLoad, days)
		for i := range series {
			series[i] = DailyLoad{Date: baseDate.AddDate(0, 0, i), TSS: tss}
		}
		return series
	}

	tests := []struct {
		name    string
		series  []DailyLoad
		checkFn func(t *testing.T, m TrainingMetrics)
	}{
		{
			name:   "empty series",
			series: nil,
			checkFn: func(t *testing.T, m TrainingMetrics) {
				if m != (TrainingMetrics{}) {
					t.Errorf("expected zero metrics, got %+v", m)
				}
			},
		},
		{
			name:   "weekly and monthly sums",
			series: makeSeries(45, 10),
			checkFn: func(t *testing.T, m TrainingMetrics) {
				if m.WeeklyTSS != 70 {
					t.Errorf("WeeklyTSS = %v, want 70", m.WeeklyTSS)
				}
				if m.MonthlyTSS != 300 {
					t.Errorf("MonthlyTSS = %v, want 300", m.MonthlyTSS)
				}
				if !m.Date.Equal(baseDate.AddDate(0, 0, 44)) {
					t.Errorf("Date = %v, want last day", m.Date)
				}
				if m.TSB != m.CTL-m.ATL {
					t.Errorf("TSB = %v, want CTL-ATL = %v", m.TSB, m.CTL-m.ATL)
				}
			},
		},
		{
			name:   "short history sums what exists",
			series: makeSeries(3, 20),
			checkFn: func(t *testing.T, m TrainingMetrics) {
				if m.WeeklyTSS != 60 || m.MonthlyTSS != 60 {
					t.Errorf("WeeklyTSS = %v, MonthlyTSS = %v, want 60/60", m.WeeklyTSS, m.MonthlyTSS)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, engine.CalculateMetrics(tt.series))
		})
	}
}

func TestFitnessTrend(t *testing.T) {
	engine := NewEngine(DefaultParams())
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if trend := engine.FitnessTrend(nil); trend != nil {
		t.Errorf("expected nil trend for empty series, got %v", trend)
	}

	series := make([]DailyLoad, 21)
	for i := range series {
		series[i] = DailyLoad{Date: baseDate.AddDate(0, 0, i), TSS: 100}
	}
	trend := engine.FitnessTrend(series)

	if len(trend) != len(series) {
		t.Fatalf("expected %d entries, got %d", len(series), len(trend))
	}
	for i := 1; i < len(trend); i++ {
		if trend[i].CTL < trend[i-1].CTL {
			t.Errorf("CTL should not fall under constant load: day %d=%v, day %d=%v",
				i-1, trend[i-1].CTL, i, trend[i].CTL)
		}
	}

	last := trend[len(trend)-1]
	current := engine.CalculateMetrics(series)
	if last.CTL != current.CTL || last.ATL != current.ATL || last.TSB != current.TSB {
		t.Errorf("last trend point %+v does not match current metrics %+v", last, current)
	}
}

func TestEngineIsIdempotent(t *testing.T) {
	engine := NewEngine(DefaultParams())
	baseDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rides := []RideSample{
		{Date: baseDate, DurationSeconds: 5400, ElevationGainM: 800, Zone: ZoneEndurance},
		{Date: baseDate.AddDate(0, 0, 2), TrainingStressScore: floatPtr(95), Zone: ZoneThreshold},
		{Date: baseDate.AddDate(0, 0, 2), DurationSeconds: 1800, Zone: ZoneRecovery},
	}
	end := baseDate.AddDate(0, 0, 13)

	first := engine.BuildDailySeries(rides, baseDate, end)
	second := engine.BuildDailySeries(rides, baseDate, end)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("series differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}

	values := Values(first)
	if engine.CalculateCTL(values) != engine.CalculateCTL(values) {
		t.Error("CTL not repeatable")
	}
	if engine.CalculateATL(values) != engine.CalculateATL(values) {
		t.Error("ATL not repeatable")
	}
	if CalculateMonotony(values) != CalculateMonotony(values) {
		t.Error("monotony not repeatable")
	}
	if engine.CalculateMetrics(first) != engine.CalculateMetrics(second) {
		t.Error("metrics not repeatable")
	}

	a, b := ClassifyZoneDistribution(rides), ClassifyZoneDistribution(rides)
	if a.Balance != b.Balance || a.LowIntensityPct != b.LowIntensityPct || a.Classified != b.Classified {
		t.Error("zone summary not repeatable")
	}

	if *rides[1].TrainingStressScore != 95 || rides[0].DurationSeconds != 5400 {
		t.Error("inputs were mutated")
	}
}

func TestDay(t *testing.T) {
	sydney := time.FixedZone("AEST", 10*60*60)

	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{"utc afternoon", time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"local date is kept", time.Date(2024, 3, 2, 6, 0, 0, 0, sydney), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"already midnight", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Day(tt.in)
			if !got.Equal(tt.expected) || got.Location() != time.UTC {
				t.Errorf("Day(%v) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}
