// Package parser turns raw UAV movement telegram lines into structured records.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"telegram_parser/internal/patterns"
	"telegram_parser/internal/telegram"
)

// Parse extracts a structured record from one raw telegram line. It never
// fails loudly: a field that cannot be matched is simply left unset, and an
// unexpected internal fault is recovered into a single critical parse error
// on a record with identifier "UNKNOWN". Times are resolved against now,
// which callers pass explicitly to keep parsing deterministic.
func Parse(raw string, now time.Time) (rec *telegram.Record) {
	rec = &telegram.Record{
		MessageType: telegram.TypeFPL,
		RawMessage:  strings.TrimSpace(raw),
	}

	defer func() {
		if r := recover(); r != nil {
			rec = &telegram.Record{
				MessageType: telegram.TypeFPL,
				FlightID:    "UNKNOWN",
				RawMessage:  strings.TrimSpace(raw),
				ParseErrors: []string{fmt.Sprintf("critical parse failure: %v", r)},
			}
		}
	}()

	text := patterns.Normalize(raw)

	rec.MessageType = parseMessageType(text)
	rec.FlightID = firstSubmatch(patterns.FlightIDPattern, text)
	rec.AircraftType = firstSubmatch(patterns.AircraftTypePattern, text)
	rec.Registration = firstSubmatch(patterns.RegistrationPattern, text)

	rec.DepartureTime, rec.ArrivalTime = parseTimes(text, now)

	rec.DepartureCoordinates = parseCoordinates(text, 0)
	rec.ArrivalCoordinates = parseCoordinates(text, 1)

	rec.DepartureAerodrome, rec.ArrivalAerodrome = parseAerodromes(text)
	rec.Altitude = parseAltitude(text)

	rec.Route = strings.TrimSpace(firstSubmatch(patterns.RoutePattern, text))
	rec.Operator = strings.TrimSpace(firstSubmatch(patterns.OperatorPattern, text))
	rec.Remarks = strings.TrimSpace(firstSubmatch(patterns.RemarksPattern, text))

	checkRecord(rec)
	return rec
}

func parseMessageType(text string) telegram.MessageType {
	if m := patterns.MessageTypePattern.FindStringSubmatch(text); m != nil && telegram.IsKnownType(m[1]) {
		return telegram.MessageType(m[1])
	}
	return telegram.TypeFPL
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return ""
}

// parseTimes finds departure and arrival times. Compound 10-digit tokens
// (day + time of day) are preferred; bare HHMM/HHMMSS tokens resolved against
// the reference date are the fallback. First occurrence is departure, second
// is arrival.
func parseTimes(text string, now time.Time) (dep, arr *time.Time) {
	compound := patterns.DateTimePattern.FindAllStringSubmatch(text, -1)
	if len(compound) > 0 {
		if t, ok := resolveCompound(compound[0][1], now); ok {
			dep = &t
			if len(compound) > 1 {
				if t2, ok := resolveCompound(compound[1][1], now); ok {
					arr = &t2
				}
			}
		}
	}
	if dep != nil {
		return dep, arr
	}

	bare := patterns.TimePattern.FindAllStringSubmatch(text, -1)
	if len(bare) > 0 {
		if t, ok := resolveBare(bare[0][1], now); ok {
			dep = &t
			if len(bare) > 1 {
				if t2, ok := resolveBare(bare[1][1], now); ok {
					arr = &t2
				}
			}
		}
	}
	return dep, arr
}

// resolveCompound interprets the first 8 digits of a 10-digit token as
// DDHHMMSS against the reference month; the trailing 2 digits are ignored.
// A day that does not exist in the reference month rolls back one month.
func resolveCompound(s string, now time.Time) (time.Time, bool) {
	if len(s) != 10 {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(s[0:2])
	hour, _ := strconv.Atoi(s[2:4])
	minute, _ := strconv.Atoi(s[4:6])
	second, _ := strconv.Atoi(s[6:8])

	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	year, month := now.Year(), now.Month()
	if day < 1 || day > daysIn(year, month) {
		if month == time.January {
			year--
			month = time.December
		} else {
			month--
		}
		if day < 1 || day > daysIn(year, month) {
			return time.Time{}, false
		}
	}
	return time.Date(year, month, day, hour, minute, second, 0, now.Location()), true
}

// resolveBare interprets a 4-digit HHMM or 6-digit HHMMSS token against the
// reference date. A resolved time strictly after now belongs to the previous day.
func resolveBare(s string, now time.Time) (time.Time, bool) {
	var hour, minute, second int
	switch len(s) {
	case 4:
		hour, _ = strconv.Atoi(s[0:2])
		minute, _ = strconv.Atoi(s[2:4])
	case 6:
		hour, _ = strconv.Atoi(s[0:2])
		minute, _ = strconv.Atoi(s[2:4])
		second, _ = strconv.Atoi(s[4:6])
	default:
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, second, 0, now.Location())
	if t.After(now) {
		t = t.AddDate(0, 0, -1)
	}
	return t, true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseCoordinates returns the idx-th coordinate pair (0 = departure,
// 1 = arrival). Decimal pairs are tried first, then degree-minute notation.
// A returned pair is always within global ranges; transposed decimal pairs
// are repaired, unrepairable ones are dropped.
func parseCoordinates(text string, idx int) *telegram.Coordinates {
	decimal := patterns.DecimalCoordPattern.FindAllStringSubmatch(text, -1)
	if len(decimal) > idx {
		first, err1 := strconv.ParseFloat(decimal[idx][1], 64)
		second, err2 := strconv.ParseFloat(decimal[idx][2], 64)
		if err1 == nil && err2 == nil {
			if lon, lat, ok := patterns.NormalizeDecimalPair(first, second); ok {
				return &telegram.Coordinates{Lon: lon, Lat: lat}
			}
		}
	}

	dms := patterns.DMSCoordPattern.FindAllStringSubmatch(text, -1)
	if len(dms) > idx {
		if lon, lat, ok := patterns.ParseDMSPair(dms[idx]); ok {
			return &telegram.Coordinates{Lon: lon, Lat: lat}
		}
	}

	return nil
}

func parseAerodromes(text string) (dep, arr string) {
	matches := patterns.AerodromePattern.FindAllString(text, -1)
	if len(matches) > 0 {
		dep = matches[0]
	}
	if len(matches) > 1 {
		arr = matches[1]
	}
	return dep, arr
}

// parseAltitude returns altitude in metres from the first F###/A###/FL###
// group, scaled by the flight-level convention. First match wins when
// several occur.
func parseAltitude(text string) *int {
	m := patterns.AltitudePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	for _, g := range m[1:] {
		if g != "" {
			v, err := strconv.Atoi(g)
			if err != nil {
				return nil
			}
			alt := v * 100
			return &alt
		}
	}
	return nil
}

// checkRecord appends record-level advisory parse errors. These do not block
// processing; the validator re-checks the same conditions independently.
func checkRecord(rec *telegram.Record) {
	if rec.FlightID == "" {
		rec.ParseErrors = append(rec.ParseErrors, "flight identifier not found")
	}
	if rec.DepartureTime == nil && rec.DepartureCoordinates == nil {
		rec.ParseErrors = append(rec.ParseErrors, "no departure data found (time or coordinates)")
	}
	if c := rec.DepartureCoordinates; c != nil && !patterns.WithinTerritory(c.Lon, c.Lat) {
		rec.ParseErrors = append(rec.ParseErrors,
			fmt.Sprintf("departure coordinates outside territorial bounds: %g, %g", c.Lat, c.Lon))
	}
	if c := rec.ArrivalCoordinates; c != nil && !patterns.WithinTerritory(c.Lon, c.Lat) {
		rec.ParseErrors = append(rec.ParseErrors,
			fmt.Sprintf("arrival coordinates outside territorial bounds: %g, %g", c.Lat, c.Lon))
	}
}
