package analysis

import "math"

// HRZones represents athlete's heart rate anchors
type HRZones struct {
	RestingHR   float64
	MaxHR       float64
	ThresholdHR float64
}

// DefaultZones returns sensible defaults if not configured
func DefaultZones() HRZones {
	return HRZones{
		RestingHR:   50,
		MaxHR:       185,
		ThresholdHR: 165,
	}
}

// NewHRZones builds zones from athlete settings, filling gaps from the defaults
func NewHRZones(restingHR, maxHR, thresholdHR float64) HRZones {
	z := DefaultZones()
	if restingHR > 0 {
		z.RestingHR = restingHR
	}
	if maxHR > 0 {
		z.MaxHR = maxHR
	}
	if thresholdHR > 0 {
		z.ThresholdHR = thresholdHR
	}
	return z
}

// reserveRatio is the fraction of heart rate reserve used, clamped to [0, 1]
func (z HRZones) reserveRatio(hr float64) float64 {
	reserve := z.MaxHR - z.RestingHR
	if reserve <= 0 || !(hr > 0) {
		return 0
	}
	ratio := (hr - z.RestingHR) / reserve
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// TRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(1.92 * ΔHR ratio)
func TRIMP(durationSeconds, avgHR float64, zones HRZones) float64 {
	ratio := zones.reserveRatio(avgHR)
	if ratio == 0 {
		return 0
	}
	return sanitize(durationSeconds) / 60 * ratio * math.Exp(1.92*ratio)
}

// HRSS calculates Heart Rate Stress Score, scaled so one hour at threshold HR is 100
func HRSS(durationSeconds, avgHR float64, zones HRZones) float64 {
	thresholdTRIMP := TRIMP(3600, zones.ThresholdHR, zones)
	if thresholdTRIMP <= 0 {
		return 0
	}
	return TRIMP(durationSeconds, avgHR, zones) / thresholdTRIMP * 100
}

// PowerTSS calculates the power-based Training Stress Score:
// (seconds * NP * IF) / (FTP * 3600) * 100
func PowerTSS(durationSeconds, normalizedPowerW, ftpW float64) float64 {
	if !(ftpW > 0) || !(normalizedPowerW > 0) {
		return 0
	}
	intensity := normalizedPowerW / ftpW
	return sanitize(durationSeconds) * normalizedPowerW * intensity / (ftpW * 3600) * 100
}

// Upper bounds (fraction of FTP) for each power zone below anaerobic
var powerZoneBounds = []struct {
	zone  Zone
	upper float64
}{
	{ZoneRecovery, 0.55},
	{ZoneEndurance, 0.75},
	{ZoneTempo, 0.88},
	{ZoneSweetSpot, 0.94},
	{ZoneThreshold, 1.05},
	{ZoneVO2Max, 1.20},
}

// Upper bounds (fraction of HR reserve) for each heart rate zone below anaerobic
var heartRateZoneBounds = []struct {
	zone  Zone
	upper float64
}{
	{ZoneRecovery, 0.60},
	{ZoneEndurance, 0.70},
	{ZoneTempo, 0.78},
	{ZoneSweetSpot, 0.83},
	{ZoneThreshold, 0.90},
	{ZoneVO2Max, 0.95},
}

// ZoneForPower classifies a ride by its intensity factor (normalized power / FTP)
func ZoneForPower(normalizedPowerW, ftpW float64) Zone {
	if !(ftpW > 0) || !(normalizedPowerW > 0) {
		return ZoneNone
	}
	intensity := normalizedPowerW / ftpW
	for _, b := range powerZoneBounds {
		if intensity < b.upper {
			return b.zone
		}
	}
	return ZoneAnaerobic
}

// ZoneForHeartRate classifies a ride by average heart rate reserve
func ZoneForHeartRate(avgHR float64, zones HRZones) Zone {
	if !(avgHR > 0) || zones.MaxHR <= zones.RestingHR {
		return ZoneNone
	}
	ratio := zones.reserveRatio(avgHR)
	for _, b := range heartRateZoneBounds {
		if ratio < b.upper {
			return b.zone
		}
	}
	return ZoneAnaerobic
}
