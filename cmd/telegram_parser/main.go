// Command-line entry point for the telegram pipeline (extract-focused).
//
// Input is plain text with one UAV movement telegram per line, e.g.
//
//	FPL-RA0721-QUAD-RA0721 -DEP/5544N03736E 1507100000 -ARR/5545N03740E 1507110500
//
// The extract command parses, validates and deduplicates the batch and
// prints the accepted records plus processing statistics as JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/telegram"
	"telegram_parser/internal/validate"
)

type ExtractOut struct {
	Records []*telegram.Record `json:"records"`
	Stats   *batch.Stats       `json:"stats"`
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "telegram_parser - commands:")
	fmt.Fprintln(w, "  extract  - parse telegram text file and output JSON")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  telegram_parser extract -input telegrams.txt [-output out.json] [-pretty] [-stats] [-workers N]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Input must be plain text, one telegram per line. Blank lines are skipped.")
	fmt.Fprintln(w, "  - A batch is capped at 10000 telegrams.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "extract":
		runExtract(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	inPath := fs.String("input", "", "Input text file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	workers := fs.Int("workers", 0, "Parallel parse workers (0 = sequential)")
	_ = fs.Parse(args)

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	// Telegrams are short, but be generous (1MB).
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Input read error: %v\n", err)
		os.Exit(1)
	}
	if len(lines) > batch.MaxBatchSize {
		fmt.Fprintf(os.Stderr, "Batch exceeds the limit of %d telegrams (got %d)\n", batch.MaxBatchSize, len(lines))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := batch.New(validate.DefaultLimits()).WithWorkers(*workers)
	records, stats := proc.Process(ctx, lines, time.Now().UTC())

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	enc, err := marshalJSON(ExtractOut{Records: records, Stats: stats}, *pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = wout.Write(enc)
	if wout == os.Stdout {
		_, _ = wout.Write([]byte("\n"))
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: total=%d valid=%d invalid=%d warnings=%d duplicates=%d accepted=%d interrupted=%v\n",
			stats.OriginalCount, stats.ValidCount, stats.InvalidCount,
			stats.WarningCount, stats.DuplicatesRemoved, stats.AcceptedCount, stats.Interrupted,
		)
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
