package analysis

// StressSource records where a ride's training stress came from
type StressSource string

const (
	SourcePower     StressSource = "power"
	SourceHeartRate StressSource = "heart_rate"
	SourceEstimate  StressSource = "estimate" // engine falls back to duration + climbing
)

// Athlete holds the anchors used to turn power and heart rate into stress
type Athlete struct {
	FTP   float64
	Zones HRZones
}

// RideIntensity is the derived stress score and zone for one ride
type RideIntensity struct {
	TSS    *float64
	Zone   Zone
	Source StressSource
}

// ComputeRideIntensity derives TSS and zone from whatever the ride recorded.
// Power wins over heart rate. Weighted power stands in for normalized power when present.
// With neither, TSS is left nil so EstimateTSS applies.
func ComputeRideIntensity(durationSeconds float64, avgPowerW, weightedPowerW, avgHR *float64, athlete Athlete) RideIntensity {
	power := positive(weightedPowerW)
	if power == 0 {
		power = positive(avgPowerW)
	}

	if power > 0 && athlete.FTP > 0 {
		if tss := PowerTSS(durationSeconds, power, athlete.FTP); tss > 0 {
			return RideIntensity{
				TSS:    &tss,
				Zone:   ZoneForPower(power, athlete.FTP),
				Source: SourcePower,
			}
		}
	}

	if hr := positive(avgHR); hr > 0 {
		if hrss := HRSS(durationSeconds, hr, athlete.Zones); hrss > 0 {
			return RideIntensity{
				TSS:    &hrss,
				Zone:   ZoneForHeartRate(hr, athlete.Zones),
				Source: SourceHeartRate,
			}
		}
	}

	return RideIntensity{Source: SourceEstimate}
}

// StressDescription returns a human-readable label for a single ride's TSS
func StressDescription(tss float64) string {
	switch {
	case tss >= 300:
		return "Epic"
	case tss >= 150:
		return "Very hard"
	case tss >= 100:
		return "Hard"
	case tss >= 50:
		return "Moderate"
	case tss > 0:
		return "Easy"
	default:
		return "None"
	}
}

func positive(v *float64) float64 {
	if v == nil {
		return 0
	}
	return sanitize(*v)
}
