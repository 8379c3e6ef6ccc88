package analysis

import "math"

// Default model constants
const (
	DefaultTSSPerHour       = 50.0  // assumed moderate intensity when no stress score exists
	DefaultElevationUnitM   = 300.0 // metres of climbing per elevation increment
	DefaultElevationUnitTSS = 10.0  // TSS added per elevation increment
	DefaultCTLTimeConstant  = 42    // days
	DefaultATLTimeConstant  = 7     // days
	DefaultMonotonyWarning  = 2.0
)

// Params tunes the training load model
type Params struct {
	TSSPerHour       float64
	ElevationUnitM   float64
	ElevationUnitTSS float64
	CTLTimeConstant  int
	ATLTimeConstant  int
	MonotonyWarning  float64
}

// DefaultParams returns the standard cycling model
func DefaultParams() Params {
	return Params{
		TSSPerHour:       DefaultTSSPerHour,
		ElevationUnitM:   DefaultElevationUnitM,
		ElevationUnitTSS: DefaultElevationUnitTSS,
		CTLTimeConstant:  DefaultCTLTimeConstant,
		ATLTimeConstant:  DefaultATLTimeConstant,
		MonotonyWarning:  DefaultMonotonyWarning,
	}
}

// withDefaults replaces unset or invalid fields with the defaults
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if !(p.TSSPerHour > 0) || math.IsInf(p.TSSPerHour, 0) {
		p.TSSPerHour = d.TSSPerHour
	}
	if !(p.ElevationUnitM > 0) || math.IsInf(p.ElevationUnitM, 0) {
		p.ElevationUnitM = d.ElevationUnitM
	}
	if !(p.ElevationUnitTSS > 0) || math.IsInf(p.ElevationUnitTSS, 0) {
		p.ElevationUnitTSS = d.ElevationUnitTSS
	}
	if p.CTLTimeConstant <= 0 {
		p.CTLTimeConstant = d.CTLTimeConstant
	}
	if p.ATLTimeConstant <= 0 {
		p.ATLTimeConstant = d.ATLTimeConstant
	}
	if !(p.MonotonyWarning > 0) || math.IsInf(p.MonotonyWarning, 0) {
		p.MonotonyWarning = d.MonotonyWarning
	}
	return p
}

// sanitize coerces NaN, infinities and negative values to zero
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
