package units

import (
	"math"
	"testing"
)

func TestParseSpeedUnit(t *testing.T) {
	cases := []struct {
		in   string
		want SpeedUnit
	}{
		{"mps", MetersPerSecond},
		{"mph", MilesPerHour},
		{"kmph", KilometersPerHour},
		{"kph", KilometersPerHour}, // alias
		{"  KPH ", KilometersPerHour},
	}
	for _, c := range cases {
		got, err := ParseSpeedUnit(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseSpeedUnit(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
	if _, err := ParseSpeedUnit("furlongs"); err == nil {
		t.Error("unknown unit accepted")
	}
}

func TestFromMPS(t *testing.T) {
	if got := MetersPerSecond.FromMPS(10); got != 10 {
		t.Errorf("mps identity: %v", got)
	}
	if got := KilometersPerHour.FromMPS(10); math.Abs(got-36) > 1e-9 {
		t.Errorf("10 m/s = 36 km/h, got %v", got)
	}
	// 1609.344 m/h per mph: 10 m/s is ~22.3694 mph
	if got := MilesPerHour.FromMPS(10); math.Abs(got-22.369362920544) > 1e-9 {
		t.Errorf("mph conversion: %v", got)
	}
}

func TestDegrees(t *testing.T) {
	if got := Degrees(math.Pi / 2); math.Abs(got-90) > 1e-9 {
		t.Errorf("east heading: %v", got)
	}
	if got := Degrees(-math.Pi / 2); math.Abs(got-270) > 1e-9 {
		t.Errorf("negative radians wrap into [0, 360): %v", got)
	}
	if got := Degrees(2 * math.Pi); math.Abs(got) > 1e-9 {
		t.Errorf("full turn is 0: %v", got)
	}
}
