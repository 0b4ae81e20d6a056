package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/reader"
)

// Pipeline runs one sequential pass: read, parse, classify, assemble.
type Pipeline struct {
	parser    parser.RecordParser
	extractor extractor.Extractor
}

func New(recordParser parser.RecordParser, ext extractor.Extractor) *Pipeline {
	return &Pipeline{
		parser:    recordParser,
		extractor: ext,
	}
}

// Run returns a snapshot only after every line of src has been processed.
// Any read failure aborts the run without output; malformed lines do not.
func (p *Pipeline) Run(ctx context.Context, src reader.LineSource) (*dataset.Snapshot, error) {
	startTime := time.Now()
	log.Info().Str("file", src.Name()).Msg("Starting log analysis...")

	total, err := src.CountLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count log lines: %w", err)
	}

	acc := extractor.NewAccumulator()
	var parsed, skipped int64

	linesRead, err := src.Each(ctx, total, func(line string) {
		rec, parseErr := p.parser.Parse(line)
		if parseErr != nil {
			skipped++
			log.Trace().Err(parseErr).Msg("Skipping unparseable log line")
			return
		}
		parsed++
		p.extractor.Extract(rec, acc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process log lines: %w", err)
	}

	stats := dataset.Stats{
		TotalLines:    linesRead,
		ParsedRecords: parsed,
		SkippedLines:  skipped,
		StartedAt:     startTime.UTC(),
		Duration:      time.Since(startTime),
	}
	snap := dataset.Assemble(acc, src.Name(), stats)

	log.Info().
		Str("file", src.Name()).
		Int64("lines_read", linesRead).
		Int64("records_parsed", parsed).
		Int64("lines_skipped", skipped).
		Int("slow_queries", snap.SlowQueries.Len()).
		Int("connections", snap.Connections.Len()).
		Int("information", snap.Information.Len()).
		Dur("duration", stats.Duration).
		Msg("Finished log analysis.")

	return snap, nil
}
