// Package validate performs semantic validation and normalization of parsed
// telegram records. Validation is pure: it returns blocking errors,
// non-blocking warnings and a field patch; callers apply the patch only to
// valid records.
package validate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"telegram_parser/internal/patterns"
	"telegram_parser/internal/telegram"
)

// Limits holds the configurable plausibility thresholds.
type Limits struct {
	MaxFlightDuration time.Duration
	MinFlightDuration time.Duration
	MaxAltitudeMeters int
	MaxSpeedKmh       float64
}

// DefaultLimits returns the standard thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxFlightDuration: 24 * time.Hour,
		MinFlightDuration: time.Minute,
		MaxAltitudeMeters: 10000,
		MaxSpeedKmh:       500,
	}
}

// Patch is the closed set of normalized field values produced by validation.
// Nil slots are untouched on apply; slots are disjoint by construction, one
// sub-check owns each field.
type Patch struct {
	FlightID             *string
	AircraftType         *string
	DepartureTime        *time.Time
	ArrivalTime          *time.Time
	DurationMinutes      *int
	DepartureCoordinates *telegram.Coordinates
	ArrivalCoordinates   *telegram.Coordinates
	Altitude             *int
	DistanceKm           *float64
	AverageSpeedKmh      *float64
}

// Apply merges the patch onto the record.
func (p *Patch) Apply(rec *telegram.Record) {
	if p.FlightID != nil {
		rec.FlightID = *p.FlightID
	}
	if p.AircraftType != nil {
		rec.AircraftType = *p.AircraftType
	}
	if p.DepartureTime != nil {
		rec.DepartureTime = p.DepartureTime
	}
	if p.ArrivalTime != nil {
		rec.ArrivalTime = p.ArrivalTime
	}
	if p.DurationMinutes != nil {
		rec.DurationMinutes = p.DurationMinutes
	}
	if p.DepartureCoordinates != nil {
		rec.DepartureCoordinates = p.DepartureCoordinates
	}
	if p.ArrivalCoordinates != nil {
		rec.ArrivalCoordinates = p.ArrivalCoordinates
	}
	if p.Altitude != nil {
		rec.Altitude = p.Altitude
	}
	if p.DistanceKm != nil {
		rec.DistanceKm = p.DistanceKm
	}
	if p.AverageSpeedKmh != nil {
		rec.AverageSpeedKmh = p.AverageSpeedKmh
	}
}

// Outcome is the result of validating one record.
type Outcome struct {
	IsValid  bool
	Errors   []string // blocking
	Warnings []string // non-blocking, retained for audit
	Patch    Patch
}

// Validator evaluates records against the configured limits.
type Validator struct {
	limits Limits
}

// New returns a Validator with the given limits.
func New(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate runs all sub-checks against the record. Sub-checks run in a fixed
// order (identifier, aircraft type, times, coordinates, altitude,
// distance/speed) and their findings are concatenated in that order. The
// record itself is never mutated; now is the reference for plausibility
// checks on times.
func (v *Validator) Validate(rec *telegram.Record, now time.Time) Outcome {
	out := Outcome{}

	v.checkFlightID(rec, &out)
	v.checkAircraftType(rec, &out)
	v.checkTimes(rec, now, &out)
	v.checkCoordinates(rec, &out)
	v.checkAltitude(rec, &out)
	v.checkDistance(rec, &out)

	out.IsValid = len(out.Errors) == 0
	return out
}

func (v *Validator) checkFlightID(rec *telegram.Record, out *Outcome) {
	if rec.FlightID == "" {
		out.Errors = append(out.Errors, "flight identifier is missing")
		return
	}

	id := strings.ToUpper(strings.TrimSpace(rec.FlightID))
	if len(id) < 3 || len(id) > 7 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("non-standard flight identifier length: %d", len(id)))
	}
	for _, r := range id {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			out.Warnings = append(out.Warnings, "flight identifier contains invalid characters")
			break
		}
	}
	out.Patch.FlightID = &id
}

func (v *Validator) checkAircraftType(rec *telegram.Record, out *Outcome) {
	var t string
	if rec.AircraftType == "" {
		t = "UNKN"
		out.Warnings = append(out.Warnings, "aircraft type not specified, defaulting to UNKN")
	} else {
		t = strings.ToUpper(strings.TrimSpace(rec.AircraftType))
		if !patterns.ValidAircraftTypes[t] {
			out.Warnings = append(out.Warnings, fmt.Sprintf("unknown aircraft type: %s", t))
			t = patterns.ClassifyAircraftType(t)
			out.Warnings = append(out.Warnings, fmt.Sprintf("aircraft type auto-classified as: %s", t))
		}
	}
	out.Patch.AircraftType = &t
}

func (v *Validator) checkTimes(rec *telegram.Record, now time.Time, out *Outcome) {
	if rec.DepartureTime == nil {
		out.Errors = append(out.Errors, "departure time is missing")
		return
	}
	dep := *rec.DepartureTime

	if dep.Before(now.AddDate(0, 0, -365)) {
		out.Warnings = append(out.Warnings, "departure time is more than a year in the past")
	} else if dep.After(now.AddDate(0, 0, 30)) {
		out.Warnings = append(out.Warnings, "departure time is more than a month in the future")
	}
	out.Patch.DepartureTime = &dep

	if rec.ArrivalTime == nil {
		return
	}
	arr := *rec.ArrivalTime

	if !arr.After(dep) {
		out.Errors = append(out.Errors, "arrival time must be later than departure time")
	}

	d := arr.Sub(dep)
	if d > v.limits.MaxFlightDuration {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unusually long flight: %.1f hours", d.Hours()))
	} else if d < v.limits.MinFlightDuration {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unusually short flight: %.1f minutes", d.Minutes()))
	}

	minutes := int(math.Floor(d.Seconds() / 60))
	out.Patch.ArrivalTime = &arr
	out.Patch.DurationMinutes = &minutes
}

func (v *Validator) checkCoordinates(rec *telegram.Record, out *Outcome) {
	if rec.DepartureCoordinates == nil {
		out.Errors = append(out.Errors, "departure coordinates are missing")
		return
	}

	dep := *rec.DepartureCoordinates
	if !patterns.ValidLon(dep.Lon) {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid departure longitude: %g", dep.Lon))
	}
	if !patterns.ValidLat(dep.Lat) {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid departure latitude: %g", dep.Lat))
	}
	if !patterns.WithinTerritory(dep.Lon, dep.Lat) {
		out.Warnings = append(out.Warnings, "departure coordinates may be outside territorial bounds")
	}
	out.Patch.DepartureCoordinates = &dep

	if rec.ArrivalCoordinates == nil {
		return
	}
	arr := *rec.ArrivalCoordinates
	if !patterns.ValidLon(arr.Lon) {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid arrival longitude: %g", arr.Lon))
	}
	if !patterns.ValidLat(arr.Lat) {
		out.Errors = append(out.Errors, fmt.Sprintf("invalid arrival latitude: %g", arr.Lat))
	}
	if !patterns.WithinTerritory(arr.Lon, arr.Lat) {
		out.Warnings = append(out.Warnings, "arrival coordinates may be outside territorial bounds")
	}
	out.Patch.ArrivalCoordinates = &arr
}

func (v *Validator) checkAltitude(rec *telegram.Record, out *Outcome) {
	if rec.Altitude == nil {
		return
	}
	alt := *rec.Altitude
	if alt < 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("negative altitude: %d m", alt))
	} else if alt > v.limits.MaxAltitudeMeters {
		out.Warnings = append(out.Warnings, fmt.Sprintf("altitude above ceiling: %d m", alt))
	}
	out.Patch.Altitude = &alt
}

// checkDistance derives the flight distance from the planar separation in
// decimal-degree space at 111 km per degree. This is a plausibility
// approximation, not a geodesic distance.
func (v *Validator) checkDistance(rec *telegram.Record, out *Outcome) {
	if rec.DepartureCoordinates == nil || rec.ArrivalCoordinates == nil {
		return
	}

	dLon := rec.ArrivalCoordinates.Lon - rec.DepartureCoordinates.Lon
	dLat := rec.ArrivalCoordinates.Lat - rec.DepartureCoordinates.Lat
	distanceKm := round2(math.Hypot(dLon, dLat) * 111)
	out.Patch.DistanceKm = &distanceKm

	if rec.DepartureTime == nil || rec.ArrivalTime == nil || distanceKm <= 0 {
		return
	}
	hours := rec.ArrivalTime.Sub(*rec.DepartureTime).Hours()
	if hours <= 0 {
		return
	}

	speed := round2(distanceKm / hours)
	if speed > v.limits.MaxSpeedKmh {
		out.Warnings = append(out.Warnings, fmt.Sprintf("implausible average speed: %.1f km/h", speed))
	}
	out.Patch.AverageSpeedKmh = &speed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
