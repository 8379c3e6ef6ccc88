package analysis

import (
	"math"
	"testing"
)

func TestTRIMP(t *testing.T) {
	zones := DefaultZones()

	tests := []struct {
		name     string
		duration float64
		avgHR    float64
		expected float64
		delta    float64
	}{
		{"no heart rate", 3600, 0, 0, 0},
		{"below resting", 3600, 40, 0, 0},
		// 60 min * 0.7407 * e^(1.92*0.7407) = ~184.3
		{"one hour moderate", 3600, 150, 184.3, 1.0},
		{"above max is clamped", 600, 220, 10 * math.Exp(1.92), 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TRIMP(tt.duration, tt.avgHR, zones)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("TRIMP() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestHRSS(t *testing.T) {
	zones := DefaultZones()

	tests := []struct {
		name     string
		duration float64
		avgHR    float64
		expected float64
	}{
		{"one hour at threshold", 3600, zones.ThresholdHR, 100},
		{"two hours at threshold", 7200, zones.ThresholdHR, 200},
		{"no heart rate", 3600, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HRSS(tt.duration, tt.avgHR, zones)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("HRSS() = %v, want %v", result, tt.expected)
			}
		})
	}

	if got := HRSS(3600, 150, HRZones{RestingHR: 60, MaxHR: 60}); got != 0 {
		t.Errorf("HRSS with degenerate zones = %v, want 0", got)
	}
}

func TestNewHRZones(t *testing.T) {
	z := NewHRZones(45, 0, 170)
	if z.RestingHR != 45 || z.MaxHR != DefaultZones().MaxHR || z.ThresholdHR != 170 {
		t.Errorf("NewHRZones() = %+v", z)
	}
}

func TestPowerTSS(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		np       float64
		ftp      float64
		expected float64
	}{
		{"one hour at FTP", 3600, 250, 250, 100},
		{"two hours at 0.8 IF", 7200, 200, 250, 128},
		{"missing FTP", 3600, 250, 0, 0},
		{"missing power", 3600, 0, 250, 0},
		{"NaN FTP", 3600, 250, math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PowerTSS(tt.duration, tt.np, tt.ftp)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("PowerTSS() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestZoneForPower(t *testing.T) {
	const ftp = 250.0

	tests := []struct {
		np   float64
		want Zone
	}{
		{100, ZoneRecovery},
		{150, ZoneEndurance},
		{200, ZoneTempo},
		{225, ZoneSweetSpot},
		{250, ZoneThreshold},
		{280, ZoneVO2Max},
		{320, ZoneAnaerobic},
		{0, ZoneNone},
	}

	for _, tt := range tests {
		if got := ZoneForPower(tt.np, ftp); got != tt.want {
			t.Errorf("ZoneForPower(%v, %v) = %q, want %q", tt.np, ftp, got, tt.want)
		}
	}
	if got := ZoneForPower(200, 0); got != ZoneNone {
		t.Errorf("ZoneForPower without FTP = %q, want none", got)
	}
}

func TestZoneForHeartRate(t *testing.T) {
	zones := DefaultZones() // reserve 50..185

	tests := []struct {
		hr   float64
		want Zone
	}{
		{120, ZoneRecovery},
		{140, ZoneEndurance},
		{150, ZoneTempo},
		{157, ZoneSweetSpot},
		{165, ZoneThreshold},
		{175, ZoneVO2Max},
		{182, ZoneAnaerobic},
		{0, ZoneNone},
	}

	for _, tt := range tests {
		if got := ZoneForHeartRate(tt.hr, zones); got != tt.want {
			t.Errorf("ZoneForHeartRate(%v) = %q, want %q", tt.hr, got, tt.want)
		}
	}
}
