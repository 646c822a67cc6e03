// Package units converts the quantities the temporal accessors report into
// display units: Speed yields distance units per second (meters per second
// for geography points), which the speed conversions read as m/s, and
// Azimuth yields radians clockwise from north; the tools render both in
// whatever the configuration asks for.
package units

import (
	"fmt"
	"math"
	"strings"
)

// SpeedUnit names a display unit for speeds given in m/s, the unit Speed
// produces for geography points.
type SpeedUnit string

const (
	MetersPerSecond   SpeedUnit = "mps"
	MilesPerHour      SpeedUnit = "mph"
	KilometersPerHour SpeedUnit = "kmph"
)

// speedFactors maps each unit to its meters-per-second multiplier.
var speedFactors = map[SpeedUnit]float64{
	MetersPerSecond:   1,
	MilesPerHour:      3600.0 / 1609.344,
	KilometersPerHour: 3.6,
}

// ParseSpeedUnit resolves a configuration string to a speed unit. "kph" is
// accepted as an alias for "kmph".
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch SpeedUnit(strings.ToLower(strings.TrimSpace(s))) {
	case MetersPerSecond:
		return MetersPerSecond, nil
	case MilesPerHour:
		return MilesPerHour, nil
	case KilometersPerHour, SpeedUnit("kph"):
		return KilometersPerHour, nil
	}
	return "", fmt.Errorf("unknown speed unit %q (want mps, mph, kmph or kph)", s)
}

func (u SpeedUnit) String() string { return string(u) }

// FromMPS converts a speed reported by the temporal accessors into this
// unit.
func (u SpeedUnit) FromMPS(v float64) float64 {
	f, ok := speedFactors[u]
	if !ok {
		return v
	}
	return v * f
}

// Degrees converts an azimuth in radians into compass degrees in [0, 360).
func Degrees(rad float64) float64 {
	deg := math.Mod(rad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
