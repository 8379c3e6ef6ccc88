package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownZone is returned when a zone label is not one of the seven training zones
var ErrUnknownZone = errors.New("unknown training zone")

// Zone is a ride's dominant training intensity
type Zone string

const (
	ZoneNone      Zone = "" // not classified
	ZoneRecovery  Zone = "recovery"
	ZoneEndurance Zone = "endurance"
	ZoneTempo     Zone = "tempo"
	ZoneSweetSpot Zone = "sweet_spot"
	ZoneThreshold Zone = "threshold"
	ZoneVO2Max    Zone = "vo2max"
	ZoneAnaerobic Zone = "anaerobic"
)

// Zones lists every training zone from easiest to hardest
var Zones = []Zone{
	ZoneRecovery,
	ZoneEndurance,
	ZoneTempo,
	ZoneSweetSpot,
	ZoneThreshold,
	ZoneVO2Max,
	ZoneAnaerobic,
}

// Band groups zones into low, medium and high intensity
type Band int

const (
	BandNone Band = iota
	BandLow
	BandMedium
	BandHigh
)

// ParseZone converts a label into a Zone.
// Empty input yields ZoneNone; anything outside the fixed set is rejected.
func ParseZone(s string) (Zone, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ZoneNone, nil
	}
	z := Zone(s)
	if !z.Valid() {
		return ZoneNone, fmt.Errorf("%w: %q", ErrUnknownZone, s)
	}
	return z, nil
}

// Valid reports whether z is one of the seven training zones
func (z Zone) Valid() bool {
	return z.Band() != BandNone
}

// Band returns the intensity band the zone belongs to
func (z Zone) Band() Band {
	switch z {
	case ZoneRecovery, ZoneEndurance:
		return BandLow
	case ZoneTempo, ZoneSweetSpot:
		return BandMedium
	case ZoneThreshold, ZoneVO2Max, ZoneAnaerobic:
		return BandHigh
	default:
		return BandNone
	}
}

// Label returns a display name for the zone
func (z Zone) Label() string {
	switch z {
	case ZoneRecovery:
		return "Recovery"
	case ZoneEndurance:
		return "Endurance"
	case ZoneTempo:
		return "Tempo"
	case ZoneSweetSpot:
		return "Sweet Spot"
	case ZoneThreshold:
		return "Threshold"
	case ZoneVO2Max:
		return "VO2max"
	case ZoneAnaerobic:
		return "Anaerobic"
	default:
		return "Unclassified"
	}
}
