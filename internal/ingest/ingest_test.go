package ingest

import (
	"context"
	"errors"
	"testing"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/regions"
	"telegram_parser/internal/telegram"
	"telegram_parser/internal/validate"
)

type mockSink struct {
	flights    []*telegram.Record
	flightErr  error
	batchID    string
	batchStats *batch.Stats
	savedCount int
}

func (m *mockSink) SaveFlight(_ context.Context, rec *telegram.Record, _, _ *regions.Region) (bool, error) {
	if m.flightErr != nil {
		return false, m.flightErr
	}
	m.flights = append(m.flights, rec)
	return true, nil
}

func (m *mockSink) SaveBatch(_ context.Context, id, _ string, stats *batch.Stats, savedCount int) error {
	m.batchID = id
	m.batchStats = stats
	m.savedCount = savedCount
	return nil
}

type mockArchiver struct {
	batchID  string
	lines    []string
	accepted []bool
}

func (m *mockArchiver) ArchiveTelegrams(_ context.Context, batchID string, lines []string, accepted []bool) error {
	m.batchID = batchID
	m.lines = lines
	m.accepted = accepted
	return nil
}

type mockLookup struct {
	calls int
}

func (m *mockLookup) Geocode(_ context.Context, _, _ float64) (*regions.Region, error) {
	m.calls++
	return &regions.Region{RegionCode: "77", RegionName: "Moscow"}, nil
}

const validLine = "FPL-DRN1234 1507000000 5542N03736E 1509300000 5545N03740E"

func TestRun_PersistsAcceptedRecords(t *testing.T) {
	sink := &mockSink{}
	arch := &mockArchiver{}
	lookup := &mockLookup{}

	ing := &Ingestor{
		Processor: batch.New(validate.DefaultLimits()),
		Sink:      sink,
		Archive:   arch,
		Regions:   lookup,
	}

	lines := []string{validLine, validLine, "FPL-DRN9999"}
	res, err := ing.Run(context.Background(), "batch-1", "test", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SavedCount != 1 {
		t.Errorf("SavedCount = %d, want 1", res.SavedCount)
	}
	if len(sink.flights) != 1 {
		t.Fatalf("saved flights = %d, want 1", len(sink.flights))
	}
	if sink.batchID != "batch-1" || sink.batchStats == nil {
		t.Errorf("batch stats not saved: id=%q stats=%v", sink.batchID, sink.batchStats)
	}
	if sink.savedCount != 1 {
		t.Errorf("sink savedCount = %d, want 1", sink.savedCount)
	}

	// Departure and arrival coordinates of the one accepted record.
	if lookup.calls != 2 {
		t.Errorf("geocode calls = %d, want 2", lookup.calls)
	}

	if arch.batchID != "batch-1" || len(arch.lines) != 3 {
		t.Fatalf("archive got id=%q lines=%d, want batch-1 with 3 lines", arch.batchID, len(arch.lines))
	}
	wantFlags := []bool{true, true, false}
	for i, f := range arch.accepted {
		if f != wantFlags[i] {
			t.Errorf("accepted[%d] = %v, want %v", i, f, wantFlags[i])
		}
	}
}

func TestRun_SaveFlightFailureDoesNotAbort(t *testing.T) {
	sink := &mockSink{flightErr: errors.New("connection reset")}

	ing := &Ingestor{
		Processor: batch.New(validate.DefaultLimits()),
		Sink:      sink,
	}

	res, err := ing.Run(context.Background(), "batch-2", "test", []string{validLine})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SavedCount != 0 {
		t.Errorf("SavedCount = %d, want 0", res.SavedCount)
	}
	if res.Stats.AcceptedCount != 1 {
		t.Errorf("AcceptedCount = %d, want 1 regardless of sink failures", res.Stats.AcceptedCount)
	}
	if sink.batchStats == nil {
		t.Error("batch stats should still be saved after flight save failures")
	}
}
