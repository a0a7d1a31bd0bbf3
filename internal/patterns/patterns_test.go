package patterns

import (
	"math"
	"testing"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  fpl-ra0721  ", "FPL-RA0721"},
		{"FPL\t-RA0721\n\n5542N03736E", "FPL -RA0721 5542N03736E"},
		{"a   b", "A B"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithinTerritory(t *testing.T) {
	tests := []struct {
		lon, lat float64
		want     bool
	}{
		{37.6, 55.7, true},   // Moscow area
		{158.6, 53.0, true},  // Kamchatka
		{10.0, 50.0, false},  // west of the envelope
		{37.6, 30.0, false},  // south of the envelope
		{-73.9, 40.7, false}, // wrong hemisphere
	}
	for _, tt := range tests {
		if got := WithinTerritory(tt.lon, tt.lat); got != tt.want {
			t.Errorf("WithinTerritory(%g, %g) = %v, want %v", tt.lon, tt.lat, got, tt.want)
		}
	}
}

func TestClassifyAircraftType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"QUADCOPTER", "QUAD"},
		{"multirotor", "QUAD"},
		{"HELICOPTER", "HELI"},
		{"FIXED-WING", "FIXW"},
		{"WING", "FIXW"},
		{"DRONE123", "UNKN"},
		{"", "UNKN"},
	}
	for _, tt := range tests {
		if got := ClassifyAircraftType(tt.in); got != tt.want {
			t.Errorf("ClassifyAircraftType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecimalCoordPattern(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		first string
		last  string
	}{
		{"space separated", "COORD 55.7 37.6", "55.7", "37.6"},
		{"comma separated", "(55.7, 37.6)", "55.7", "37.6"},
		{"comma no space", "55.700000,37.600000", "55.700000", "37.600000"},
		{"signed", "-55.7 +37.6", "-55.7", "+37.6"},
	}
	for _, tt := range tests {
		m := DecimalCoordPattern.FindStringSubmatch(tt.in)
		if m == nil {
			t.Errorf("%s: no match in %q", tt.name, tt.in)
			continue
		}
		if m[1] != tt.first || m[2] != tt.last {
			t.Errorf("%s: got (%q, %q), want (%q, %q)", tt.name, m[1], m[2], tt.first, tt.last)
		}
	}
}
