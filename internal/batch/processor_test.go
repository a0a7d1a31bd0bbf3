package batch

import (
	"context"
	"reflect"
	"testing"
	"time"

	"telegram_parser/internal/validate"
)

var refNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

const validLine = "FPL-DRN1234 1507000000 5542N03736E 1509300000 5545N03740E"

func TestProcess_Stats(t *testing.T) {
	lines := []string{
		validLine,
		validLine,     // within-batch duplicate
		"FPL-DRN9999", // no departure data, fails validation
	}

	records, stats := New(validate.DefaultLimits()).Process(context.Background(), lines, refNow)

	if stats.OriginalCount != 3 {
		t.Errorf("OriginalCount = %d, want 3", stats.OriginalCount)
	}
	if stats.ValidCount != 2 {
		t.Errorf("ValidCount = %d, want 2", stats.ValidCount)
	}
	if stats.InvalidCount != 1 {
		t.Errorf("InvalidCount = %d, want 1", stats.InvalidCount)
	}
	if stats.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", stats.DuplicatesRemoved)
	}
	if stats.AcceptedCount != 1 {
		t.Errorf("AcceptedCount = %d, want 1", stats.AcceptedCount)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if stats.Interrupted {
		t.Error("Interrupted = true, want false")
	}
	if len(stats.ValidationErrors) == 0 {
		t.Error("ValidationErrors is empty, want the failed line's errors")
	}
}

func TestProcess_PatchAppliedToValidRecords(t *testing.T) {
	records, _ := New(validate.DefaultLimits()).Process(context.Background(), []string{validLine}, refNow)

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.DurationMinutes == nil || *rec.DurationMinutes != 150 {
		t.Errorf("DurationMinutes = %v, want 150", rec.DurationMinutes)
	}
	if rec.DistanceKm == nil || *rec.DistanceKm <= 0 {
		t.Errorf("DistanceKm = %v, want > 0", rec.DistanceKm)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lines := []string{validLine, validLine, validLine}
	records, stats := New(validate.DefaultLimits()).Process(ctx, lines, refNow)

	if !stats.Interrupted {
		t.Error("Interrupted = false, want true")
	}
	if stats.OriginalCount != 3 {
		t.Errorf("OriginalCount = %d, want 3", stats.OriginalCount)
	}
	if stats.ValidCount != 0 {
		t.Errorf("ValidCount = %d, want 0 for an immediately cancelled batch", stats.ValidCount)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestProcess_ParallelMatchesSequential(t *testing.T) {
	lines := []string{
		validLine,
		"FPL-DRN9999",
		"FPL-DRN5678 1508000000 5600N04000E",
		validLine,
		"",
		"FPL-DRN5678 1508000000 5600N04000E",
	}

	seqRecords, seqStats := New(validate.DefaultLimits()).Process(context.Background(), lines, refNow)
	parRecords, parStats := New(validate.DefaultLimits()).WithWorkers(4).Process(context.Background(), lines, refNow)

	if !reflect.DeepEqual(seqStats, parStats) {
		t.Errorf("stats differ:\nsequential: %+v\nparallel:   %+v", seqStats, parStats)
	}
	if len(seqRecords) != len(parRecords) {
		t.Fatalf("record counts differ: %d vs %d", len(seqRecords), len(parRecords))
	}
	for i := range seqRecords {
		if seqRecords[i].RawMessage != parRecords[i].RawMessage {
			t.Errorf("record %d out of order: %q vs %q", i, seqRecords[i].RawMessage, parRecords[i].RawMessage)
		}
	}
}
