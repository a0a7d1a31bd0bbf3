// Package patterns provides the shared regex table and field helpers for
// telegram parsing. All patterns are compiled once at init and are safe for
// concurrent use; no per-call state exists.
package patterns

import (
	"regexp"
	"strings"
)

// Core telegram field patterns.
var (
	// MessageTypePattern matches the telegram kind code at the start of a line.
	MessageTypePattern = regexp.MustCompile(`^(FPL|DEP|ARR|CHG|CNL|DLA|RQS|RQP)`)

	// FlightIDPattern matches the flight identifier: 1-7 alphanumerics after a dash.
	// e.g., "-RA1234" -> "RA1234"
	FlightIDPattern = regexp.MustCompile(`-([A-Z0-9]{1,7})`)

	// AircraftTypePattern matches a 2-4 alphanumeric type code after a dash.
	AircraftTypePattern = regexp.MustCompile(`-([A-Z0-9]{2,4})`)

	// RegistrationPattern matches a registration mark: 1-2 letters + 1-5 alphanumerics.
	RegistrationPattern = regexp.MustCompile(`-([A-Z]{1,2}[A-Z0-9]{1,5})`)

	// DateTimePattern matches the 10-digit compound token: DDHHMMSS plus two
	// trailing digits that carry no meaning upstream and are ignored.
	DateTimePattern = regexp.MustCompile(`(\d{10})`)

	// TimePattern matches bare HHMM or HHMMSS tokens.
	TimePattern = regexp.MustCompile(`(\d{4}|\d{6})`)

	// DMSCoordPattern matches degree-minute pairs with direction letters.
	// e.g., "5542N03736E" -> 55°42'N 037°36'E
	DMSCoordPattern = regexp.MustCompile(`(\d{2,3})(\d{2})([NS])(\d{3})(\d{2})([EW])`)

	// DecimalCoordPattern matches a pair of decimal degree values.
	// e.g., "55.7 37.6" or "55.700000,37.600000"
	DecimalCoordPattern = regexp.MustCompile(`([+-]?\d{1,3}\.\d{1,6})[\s,]*([+-]?\d{1,3}\.\d{1,6})`)

	// AerodromePattern matches 4-letter aerodrome codes.
	AerodromePattern = regexp.MustCompile(`([A-Z]{4})`)

	// AltitudePattern matches flight-level style altitudes: F150, A050, FL100.
	// Whichever alternative occurs first in the text wins.
	AltitudePattern = regexp.MustCompile(`F(\d{3})|A(\d{3})|FL(\d{3})`)

	// RoutePattern captures route text after "-N".
	RoutePattern = regexp.MustCompile(`-N([A-Z0-9\s/]+)`)

	// OperatorPattern and RemarksPattern capture free text after their field
	// markers, stopping at the next dash-introduced field or end of line.
	OperatorPattern = regexp.MustCompile(`-OPR/([^-]+)`)
	RemarksPattern  = regexp.MustCompile(`-RMK/([^-]+)`)
)

// Territorial envelope: an approximate bounding box used as a cheap
// plausibility filter, not an exact polygon test.
const (
	EnvelopeLonMin = 19.0
	EnvelopeLonMax = 180.0
	EnvelopeLatMin = 41.0
	EnvelopeLatMax = 82.0
)

// WithinTerritory reports whether the point falls inside the territorial envelope.
func WithinTerritory(lon, lat float64) bool {
	return lon >= EnvelopeLonMin && lon <= EnvelopeLonMax &&
		lat >= EnvelopeLatMin && lat <= EnvelopeLatMax
}

// ValidAircraftTypes lists the recognised UAV class codes.
var ValidAircraftTypes = map[string]bool{
	"QUAD": true, "HEXA": true, "OCTO": true, // multirotor
	"FIXW": true, "HELI": true, "GYRO": true, // fixed wing, helicopter, gyroplane
	"BALL": true, "GLID": true, "PARA": true, // balloon, glider, paraglider
	"UNKN": true,
}

// ClassifyAircraftType maps a free-form type string onto a known class code
// by substring heuristic. Unrecognisable input maps to UNKN.
func ClassifyAircraftType(s string) string {
	s = strings.ToUpper(s)
	switch {
	case strings.Contains(s, "QUAD") || strings.Contains(s, "MULTI"):
		return "QUAD"
	case strings.Contains(s, "HELI"):
		return "HELI"
	case strings.Contains(s, "FIXED") || strings.Contains(s, "WING"):
		return "FIXW"
	default:
		return "UNKN"
	}
}

// whitespaceRun collapses any whitespace run to a single space during normalization.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize prepares a raw telegram line for extraction: whitespace runs
// collapse to one space, the line is trimmed and uppercased.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " ")))
}
