package analysis

import "math"

// CalculateMonotony is mean daily load divided by its population standard deviation.
//
// When every day carries the same load the deviation is zero; the divisor is then
// taken as 1, so monotony equals the mean. An empty or all-zero series yields 0.
func CalculateMonotony(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	avg := sum(series) / float64(len(series))
	if avg <= 0 {
		return 0
	}

	var variance float64
	for _, v := range series {
		d := sanitize(v) - avg
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(series)))
	if stddev == 0 {
		stddev = 1
	}
	return avg / stddev
}

// Strain is the trailing week's total load multiplied by its monotony
func Strain(series []float64) float64 {
	week := trailing(series, 7)
	return sum(week) * CalculateMonotony(week)
}

// MonotonyWarning reports whether monotony is high enough to flag
func (e *Engine) MonotonyWarning(monotony float64) bool {
	return monotony > e.params.MonotonyWarning
}
