// Coordinate conversion helpers for the two telegram coordinate notations.

package patterns

import "strconv"

// ValidLat reports whether v is a plausible latitude in decimal degrees.
func ValidLat(v float64) bool { return v >= -90 && v <= 90 }

// ValidLon reports whether v is a plausible longitude in decimal degrees.
func ValidLon(v float64) bool { return v >= -180 && v <= 180 }

// NormalizeDecimalPair interprets two decimal values as a coordinate pair.
// The convention puts latitude first, but transposed pairs occur in the wild:
// when the first value cannot be a latitude, the (lon, lat) reading is tried
// instead. Returns ok=false when neither reading is globally valid, so a
// returned pair is always within range.
func NormalizeDecimalPair(first, second float64) (lon, lat float64, ok bool) {
	if ValidLat(first) && ValidLon(second) {
		return second, first, true
	}
	if ValidLon(first) && ValidLat(second) {
		return first, second, true
	}
	return 0, 0, false
}

// DMSToDecimal converts a degrees + whole-minutes pair to decimal degrees,
// applying the sign for S/W directions.
func DMSToDecimal(degStr, minStr, dir string) (float64, bool) {
	deg, err := strconv.Atoi(degStr)
	if err != nil {
		return 0, false
	}
	min, err := strconv.Atoi(minStr)
	if err != nil {
		return 0, false
	}
	v := float64(deg) + float64(min)/60.0
	if dir == "S" || dir == "W" {
		v = -v
	}
	return v, true
}

// ParseDMSPair converts a DMSCoordPattern submatch (lat deg, lat min, N/S,
// lon deg, lon min, E/W) into a decimal (lon, lat) pair.
func ParseDMSPair(m []string) (lon, lat float64, ok bool) {
	if len(m) < 7 {
		return 0, 0, false
	}
	lat, ok = DMSToDecimal(m[1], m[2], m[3])
	if !ok {
		return 0, 0, false
	}
	lon, ok = DMSToDecimal(m[4], m[5], m[6])
	if !ok {
		return 0, 0, false
	}
	if !ValidLon(lon) || !ValidLat(lat) {
		return 0, 0, false
	}
	return lon, lat, true
}
