// Package batch orchestrates the telegram pipeline over one batch of raw
// lines: parse, validate, normalize, deduplicate, and aggregate statistics.
package batch

import (
	"context"
	"sync"
	"time"

	"telegram_parser/internal/dedupe"
	"telegram_parser/internal/parser"
	"telegram_parser/internal/telegram"
	"telegram_parser/internal/validate"
)

// MaxBatchSize caps how many telegrams one batch may carry.
const MaxBatchSize = 10000

// Stats aggregates the processing outcome of one batch.
type Stats struct {
	OriginalCount     int        `json:"original_count"`
	ValidCount        int        `json:"valid_count"`
	InvalidCount      int        `json:"invalid_count"`
	WarningCount      int        `json:"warning_count"` // records with at least one warning
	DuplicatesRemoved int        `json:"duplicates_removed"`
	AcceptedCount     int        `json:"accepted_count"`
	ValidationErrors  []string   `json:"validation_errors,omitempty"`
	Warnings          []string   `json:"warnings,omitempty"`
	DuplicateGroups   [][]string `json:"duplicate_groups,omitempty"`

	// Interrupted is set when the context expired mid-batch; the stats then
	// cover only the lines processed before the cutoff.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Processor runs the pipeline. Workers > 1 parallelizes the per-line
// parse+validate stage; results are re-sequenced to input order before
// deduplication so "first occurrence wins" stays deterministic.
type Processor struct {
	validator *validate.Validator
	workers   int
}

// New returns a Processor with the given limits and a sequential pipeline.
func New(limits validate.Limits) *Processor {
	return &Processor{validator: validate.New(limits), workers: 1}
}

// WithWorkers sets the parse+validate fan-out. Values below 1 are treated as 1.
func (p *Processor) WithWorkers(n int) *Processor {
	if n < 1 {
		n = 1
	}
	p.workers = n
	return p
}

// lineResult pairs a parsed record with its validation outcome, addressed by
// input position.
type lineResult struct {
	rec     *telegram.Record
	outcome validate.Outcome
	done    bool
}

// Process runs the full pipeline over the batch. Records are accepted when
// they validate cleanly and are not within-batch duplicates; the validator's
// patch is applied only to valid records. No I/O happens here; persistence
// and geocoding are the caller's per-record concern. A cancelled context
// stops the batch early and returns partial statistics for the lines already
// processed.
func (p *Processor) Process(ctx context.Context, lines []string, now time.Time) ([]*telegram.Record, *Stats) {
	stats := &Stats{OriginalCount: len(lines)}

	var results []lineResult
	if p.workers > 1 {
		results = p.runParallel(ctx, lines, now)
	} else {
		results = p.runSequential(ctx, lines, now)
	}

	valid := make([]*telegram.Record, 0, len(lines))
	for _, r := range results {
		if !r.done {
			stats.Interrupted = true
			break
		}
		if r.outcome.IsValid {
			r.outcome.Patch.Apply(r.rec)
			valid = append(valid, r.rec)
			stats.ValidCount++
		} else {
			stats.InvalidCount++
			stats.ValidationErrors = append(stats.ValidationErrors, r.outcome.Errors...)
		}
		if len(r.outcome.Warnings) > 0 {
			stats.WarningCount++
			stats.Warnings = append(stats.Warnings, r.outcome.Warnings...)
		}
	}

	dd := dedupe.Dedupe(valid)
	stats.DuplicatesRemoved = dd.RemovedCount
	stats.DuplicateGroups = dd.DuplicateGroups
	stats.AcceptedCount = stats.ValidCount - dd.RemovedCount

	return dd.Unique, stats
}

func (p *Processor) runSequential(ctx context.Context, lines []string, now time.Time) []lineResult {
	results := make([]lineResult, len(lines))
	for i, line := range lines {
		select {
		case <-ctx.Done():
			return results
		default:
		}
		rec := parser.Parse(line, now)
		results[i] = lineResult{rec: rec, outcome: p.validator.Validate(rec, now), done: true}
	}
	return results
}

// runParallel fans the per-line work out over p.workers goroutines. Each
// result lands in its input slot, so downstream accumulation reads them back
// in original order regardless of completion order.
func (p *Processor) runParallel(ctx context.Context, lines []string, now time.Time) []lineResult {
	results := make([]lineResult, len(lines))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rec := parser.Parse(lines[i], now)
				results[i] = lineResult{rec: rec, outcome: p.validator.Validate(rec, now), done: true}
			}
		}()
	}

feed:
	for i := range lines {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	return results
}
