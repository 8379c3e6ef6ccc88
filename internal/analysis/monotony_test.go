package analysis

import (
	"math"
	"testing"
)

func TestCalculateMonotony(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
		delta    float64
	}{
		{"empty", nil, 0, 0},
		{"all zero", []float64{0, 0, 0, 0}, 0, 0},
		{"identical loads divide by one", []float64{40, 40, 40}, 40, 0},
		{"varied loads", []float64{10, 20, 30}, 2.449, 0.001},
		{"one rest day in a week", []float64{50, 50, 50, 50, 50, 50, 0}, 2.449, 0.001},
		{"NaN counts as zero", []float64{math.NaN(), 20, 40}, 1.2247, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateMonotony(tt.series)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("CalculateMonotony() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestStrain(t *testing.T) {
	// only the trailing week counts
	series := append([]float64{500, 500, 500}, 10, 20, 30, 10, 20, 30, 40)
	week := series[len(series)-7:]

	expected := sum(week) * CalculateMonotony(week)
	if result := Strain(series); math.Abs(result-expected) > 0.0001 {
		t.Errorf("Strain() = %v, want %v", result, expected)
	}

	if result := Strain([]float64{10, 20, 30}); math.Abs(result-146.969) > 0.01 {
		t.Errorf("Strain() = %v, want ~146.97", result)
	}
	if result := Strain(nil); result != 0 {
		t.Errorf("Strain(nil) = %v, want 0", result)
	}
}

func TestMonotonyWarning(t *testing.T) {
	engine := NewEngine(DefaultParams())

	if engine.MonotonyWarning(2.0) {
		t.Error("monotony equal to the threshold should not warn")
	}
	if !engine.MonotonyWarning(2.1) {
		t.Error("monotony above the threshold should warn")
	}

	strict := NewEngine(Params{MonotonyWarning: 1.5})
	if !strict.MonotonyWarning(1.6) {
		t.Error("custom threshold not applied")
	}
}
