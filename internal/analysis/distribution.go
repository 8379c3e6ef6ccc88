package analysis

// TrainingBalance classifies how intensity is spread across rides
type TrainingBalance string

const (
	BalancePolarized     TrainingBalance = "polarized"
	BalanceBaseHeavy     TrainingBalance = "base-heavy"
	BalanceTempoFocused  TrainingBalance = "tempo-focused"
	BalanceHighIntensity TrainingBalance = "high-intensity"
	BalanceBalanced      TrainingBalance = "balanced"
)

// ZoneShare is one zone's slice of the classified rides
type ZoneShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ZoneSummary is the intensity distribution over a window of rides
type ZoneSummary struct {
	Zones              map[Zone]ZoneShare `json:"zones"`
	Classified         int                `json:"classified"`
	LowIntensityPct    float64            `json:"low_intensity_pct"`
	MediumIntensityPct float64            `json:"medium_intensity_pct"`
	HighIntensityPct   float64            `json:"high_intensity_pct"`
	Balance            TrainingBalance    `json:"training_balance"`
}

// ClassifyZoneDistribution counts rides per zone and labels the overall balance.
// Rides without a valid zone are left out of the percentages.
func ClassifyZoneDistribution(rides []RideSample) ZoneSummary {
	summary := ZoneSummary{
		Zones:   make(map[Zone]ZoneShare, len(Zones)),
		Balance: BalanceBalanced,
	}

	counts := make(map[Zone]int, len(Zones))
	for _, r := range rides {
		if !r.Zone.Valid() {
			continue
		}
		counts[r.Zone]++
		summary.Classified++
	}

	for _, z := range Zones {
		share := ZoneShare{Count: counts[z]}
		if summary.Classified > 0 {
			share.Percentage = float64(counts[z]) / float64(summary.Classified) * 100
		}
		summary.Zones[z] = share

		switch z.Band() {
		case BandLow:
			summary.LowIntensityPct += share.Percentage
		case BandMedium:
			summary.MediumIntensityPct += share.Percentage
		case BandHigh:
			summary.HighIntensityPct += share.Percentage
		}
	}

	summary.Balance = ClassifyBalance(summary.LowIntensityPct, summary.MediumIntensityPct, summary.HighIntensityPct)
	return summary
}

// ClassifyBalance applies the balance rules in priority order; the first match wins
func ClassifyBalance(lowPct, mediumPct, highPct float64) TrainingBalance {
	switch {
	case lowPct > 75 && highPct > 15:
		return BalancePolarized
	case lowPct > 80:
		return BalanceBaseHeavy
	case mediumPct > 40:
		return BalanceTempoFocused
	case highPct > 30:
		return BalanceHighIntensity
	default:
		return BalanceBalanced
	}
}
