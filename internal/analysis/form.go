package analysis

import "math"

// FormStatus labels a training stress balance
type FormStatus string

const (
	FormOverreached FormStatus = "overreached"
	FormBuilding    FormStatus = "building"
	FormBalanced    FormStatus = "balanced"
	FormFresh       FormStatus = "fresh"
	FormTapered     FormStatus = "tapered"
)

// FormInterpretation describes what a TSB value means for the athlete
type FormInterpretation struct {
	Status         FormStatus `json:"status"`
	Color          string     `json:"color"`
	Message        string     `json:"message"`
	Recommendation string     `json:"recommendation"`
}

// TSB bucket bounds; a value equal to a bound falls in the more fatigued bucket
const (
	TSBOverreachedMax = -30.0
	TSBBuildingMax    = -10.0
	TSBBalancedMax    = 5.0
	TSBFreshMax       = 25.0
)

// InterpretTSB maps form onto one of five contiguous buckets
func InterpretTSB(tsb float64) FormInterpretation {
	if math.IsNaN(tsb) {
		tsb = 0
	}

	switch {
	case tsb > TSBFreshMax:
		return FormInterpretation{
			Status:         FormTapered,
			Color:          "#3B82F6",
			Message:        "Very fresh - tapered or losing fitness",
			Recommendation: "Race now or resume structured training to avoid detraining",
		}
	case tsb > TSBBalancedMax:
		return FormInterpretation{
			Status:         FormFresh,
			Color:          "#10B981",
			Message:        "Fresh and ready to perform",
			Recommendation: "Good window for a race or a hard key session",
		}
	case tsb > TSBBuildingMax:
		return FormInterpretation{
			Status:         FormBalanced,
			Color:          "#6B7280",
			Message:        "Neutral - fatigue and fitness in balance",
			Recommendation: "Keep training as planned",
		}
	case tsb > TSBOverreachedMax:
		return FormInterpretation{
			Status:         FormBuilding,
			Color:          "#F59E0B",
			Message:        "Tired but building fitness",
			Recommendation: "Productive load; schedule recovery within the week",
		}
	default:
		return FormInterpretation{
			Status:         FormOverreached,
			Color:          "#EF4444",
			Message:        "Very fatigued - overreaching",
			Recommendation: "Rest or ride easy until form recovers",
		}
	}
}
