// Package ingest couples the batch pipeline to persistence and region
// lookup. The pipeline itself performs no I/O; everything issued per
// accepted record lives here, and a single record's failure never aborts
// the rest of the batch.
package ingest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/regions"
	"telegram_parser/internal/telegram"
)

// Sink persists accepted flights and batch statistics. Cross-batch
// idempotency on repeated flights is the sink's responsibility.
type Sink interface {
	SaveFlight(ctx context.Context, rec *telegram.Record, depRegion, arrRegion *regions.Region) (bool, error)
	SaveBatch(ctx context.Context, id, name string, stats *batch.Stats, savedCount int) error
}

// Archiver stores the raw lines of a batch for audit.
type Archiver interface {
	ArchiveTelegrams(ctx context.Context, batchID string, lines []string, accepted []bool) error
}

// Ingestor runs batches end to end: pipeline, region enrichment, persistence,
// archive. Archive and Regions are optional.
type Ingestor struct {
	Processor *batch.Processor
	Sink      Sink
	Archive   Archiver
	Regions   regions.Lookup
	Log       *zap.SugaredLogger
}

// Result reports what one batch produced.
type Result struct {
	Stats      *batch.Stats
	Accepted   []*telegram.Record
	SavedCount int
}

// Run processes one batch of raw telegram lines and persists the accepted
// records. Geocoding and save failures are logged per record and skipped.
func (g *Ingestor) Run(ctx context.Context, batchID, name string, lines []string) (*Result, error) {
	log := g.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	accepted, stats := g.Processor.Process(ctx, lines, time.Now())

	saved := 0
	for _, rec := range accepted {
		var depRegion, arrRegion *regions.Region
		if g.Regions != nil {
			var err error
			if c := rec.DepartureCoordinates; c != nil {
				if depRegion, err = g.Regions.Geocode(ctx, c.Lon, c.Lat); err != nil {
					log.Warnw("departure geocode failed", "flight_id", rec.FlightID, "error", err)
				}
			}
			if c := rec.ArrivalCoordinates; c != nil {
				if arrRegion, err = g.Regions.Geocode(ctx, c.Lon, c.Lat); err != nil {
					log.Warnw("arrival geocode failed", "flight_id", rec.FlightID, "error", err)
				}
			}
		}

		inserted, err := g.Sink.SaveFlight(ctx, rec, depRegion, arrRegion)
		if err != nil {
			log.Errorw("save flight failed", "flight_id", rec.FlightID, "error", err)
			continue
		}
		if inserted {
			saved++
		}
	}

	if err := g.Sink.SaveBatch(ctx, batchID, name, stats, saved); err != nil {
		log.Errorw("save batch stats failed", "batch_id", batchID, "error", err)
	}

	if g.Archive != nil {
		if err := g.Archive.ArchiveTelegrams(ctx, batchID, lines, acceptedFlags(lines, accepted)); err != nil {
			log.Errorw("archive batch failed", "batch_id", batchID, "error", err)
		}
	}

	log.Infow("batch processed",
		"batch_id", batchID,
		"original", stats.OriginalCount,
		"accepted", stats.AcceptedCount,
		"saved", saved,
		"invalid", stats.InvalidCount,
		"duplicates", stats.DuplicatesRemoved)

	return &Result{Stats: stats, Accepted: accepted, SavedCount: saved}, nil
}

// acceptedFlags marks which input lines ended up in the accepted set, by the
// record's untouched raw text.
func acceptedFlags(lines []string, accepted []*telegram.Record) []bool {
	set := make(map[string]bool, len(accepted))
	for _, rec := range accepted {
		set[rec.RawMessage] = true
	}
	flags := make([]bool, len(lines))
	for i, line := range lines {
		flags[i] = set[strings.TrimSpace(line)]
	}
	return flags
}
