// Package dedupe removes duplicate flight records within one batch.
package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"telegram_parser/internal/telegram"
)

// Result holds the outcome of deduplicating one batch.
type Result struct {
	Unique          []*telegram.Record // first occurrence of each fingerprint, input order
	RemovedCount    int
	DuplicateGroups [][]string // identifiers of the dropped records, grouped per fingerprint
}

// Fingerprint computes the canonical duplicate-detection hash for a record:
// flight identifier, departure time, departure coordinates rounded to six
// decimals and aircraft type, absent fields as empty strings.
func Fingerprint(rec *telegram.Record) string {
	parts := make([]string, 0, 4)

	parts = append(parts, rec.FlightID)

	if rec.DepartureTime != nil {
		parts = append(parts, rec.DepartureTime.Format(time.RFC3339))
	} else {
		parts = append(parts, "")
	}

	if c := rec.DepartureCoordinates; c != nil {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon))
	} else {
		parts = append(parts, "")
	}

	parts = append(parts, rec.AircraftType)

	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Dedupe collapses records sharing a fingerprint. The first record in input
// order is canonical and kept; the rest are dropped and their identifiers
// recorded as a duplicate group. Dedupe is idempotent and scoped to the
// given slice; no state survives the call.
func Dedupe(records []*telegram.Record) Result {
	res := Result{}

	index := make(map[string]int, len(records)) // fingerprint -> group slot
	groups := make([][]string, 0)

	for _, rec := range records {
		fp := Fingerprint(rec)
		if slot, seen := index[fp]; seen {
			groups[slot] = append(groups[slot], rec.FlightID)
			res.RemovedCount++
			continue
		}
		index[fp] = len(groups)
		groups = append(groups, nil)
		res.Unique = append(res.Unique, rec)
	}

	for _, g := range groups {
		if len(g) > 0 {
			res.DuplicateGroups = append(res.DuplicateGroups, g)
		}
	}
	return res
}
