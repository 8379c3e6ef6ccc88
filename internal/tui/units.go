package tui

import (
	"fmt"

	"trainload/internal/config"
	"trainload/internal/service"
)

// Units formats distances in the configured unit
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters
func (u Units) FormatDistance(meters float64) string {
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mi", meters/service.MetersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/service.MetersPerKm)
}

// FormatSpeed formats the average speed of a ride
func (u Units) FormatSpeed(seconds int, meters float64) string {
	if seconds <= 0 || meters <= 0 {
		return "-"
	}
	hours := float64(seconds) / 3600
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mph", meters/service.MetersPerMile/hours)
	}
	return fmt.Sprintf("%.1f km/h", meters/service.MetersPerKm/hours)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}
