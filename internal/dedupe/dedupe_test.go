package dedupe

import (
	"testing"
	"time"

	"telegram_parser/internal/telegram"
)

func record(id string, dep time.Time, lon, lat float64, acType string) *telegram.Record {
	return &telegram.Record{
		FlightID:             id,
		AircraftType:         acType,
		DepartureTime:        &dep,
		DepartureCoordinates: &telegram.Coordinates{Lon: lon, Lat: lat},
	}
}

var dep = time.Date(2024, 3, 15, 7, 0, 0, 0, time.UTC)

func TestFingerprint_Stable(t *testing.T) {
	a := record("DRN1234", dep, 37.6, 55.7, "QUAD")
	b := record("DRN1234", dep, 37.6, 55.7, "QUAD")

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical records produced different fingerprints")
	}
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := record("DRN1234", dep, 37.6, 55.7, "QUAD")

	variants := []*telegram.Record{
		record("DRN5678", dep, 37.6, 55.7, "QUAD"),
		record("DRN1234", dep.Add(time.Minute), 37.6, 55.7, "QUAD"),
		record("DRN1234", dep, 37.61, 55.7, "QUAD"),
		record("DRN1234", dep, 37.6, 55.7, "HELI"),
	}
	for i, v := range variants {
		if Fingerprint(base) == Fingerprint(v) {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestFingerprint_MissingFields(t *testing.T) {
	a := &telegram.Record{FlightID: "DRN1234"}
	b := &telegram.Record{FlightID: "DRN1234"}
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("records with absent fields should fingerprint identically")
	}
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	first := record("DRN1234", dep, 37.6, 55.7, "QUAD")
	second := record("DRN1234", dep, 37.6, 55.7, "QUAD")
	third := record("DRN1234", dep, 37.6, 55.7, "QUAD")
	other := record("DRN5678", dep, 37.6, 55.7, "QUAD")

	res := Dedupe([]*telegram.Record{first, second, other, third})

	if len(res.Unique) != 2 {
		t.Fatalf("len(Unique) = %d, want 2", len(res.Unique))
	}
	if res.Unique[0] != first || res.Unique[1] != other {
		t.Error("Unique does not keep first occurrences in input order")
	}
	if res.RemovedCount != 2 {
		t.Errorf("RemovedCount = %d, want 2", res.RemovedCount)
	}
	if len(res.DuplicateGroups) != 1 || len(res.DuplicateGroups[0]) != 2 {
		t.Fatalf("DuplicateGroups = %v, want one group of two", res.DuplicateGroups)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []*telegram.Record{
		record("DRN1234", dep, 37.6, 55.7, "QUAD"),
		record("DRN1234", dep, 37.6, 55.7, "QUAD"),
		record("DRN5678", dep, 37.6, 55.7, "QUAD"),
	}

	once := Dedupe(in)
	twice := Dedupe(once.Unique)

	if twice.RemovedCount != 0 {
		t.Errorf("second pass RemovedCount = %d, want 0", twice.RemovedCount)
	}
	if len(twice.Unique) != len(once.Unique) {
		t.Errorf("second pass len(Unique) = %d, want %d", len(twice.Unique), len(once.Unique))
	}
}

func TestDedupe_Empty(t *testing.T) {
	res := Dedupe(nil)
	if len(res.Unique) != 0 || res.RemovedCount != 0 || len(res.DuplicateGroups) != 0 {
		t.Errorf("Dedupe(nil) = %+v, want empty result", res)
	}
}
