package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// LineSource yields the raw lines of one log, in order.
type LineSource interface {
	Name() string
	// CountLines runs the counting pre-pass over the whole source.
	CountLines(ctx context.Context) (int64, error)
	// Each calls fn for every line with surrounding whitespace removed.
	// total is used only for progress reporting.
	Each(ctx context.Context, total int64, fn func(line string)) (int64, error)
}

type fileSource struct {
	path     string
	progress ProgressReporter
}

func NewFileSource(path string, progress ProgressReporter) LineSource {
	if progress == nil {
		progress = NopProgress()
	}
	return &fileSource{path: path, progress: progress}
}

func (s *fileSource) Name() string {
	return s.path
}

func (s *fileSource) CountLines(ctx context.Context) (int64, error) {
	var count int64
	err := s.scan(ctx, func(string) {
		count++
		s.progress.Progress(StageCounting, count, 0)
	})
	if err != nil {
		return count, err
	}
	s.progress.Finished(StageCounting, count)
	return count, nil
}

func (s *fileSource) Each(ctx context.Context, total int64, fn func(line string)) (int64, error) {
	var linesRead int64
	err := s.scan(ctx, func(line string) {
		linesRead++
		fn(strings.TrimSpace(line))
		s.progress.Progress(StageProcessing, linesRead, total)
	})
	if err != nil {
		return linesRead, err
	}
	s.progress.Finished(StageProcessing, linesRead)
	return linesRead, nil
}

// scan reads with bufio.Reader rather than bufio.Scanner so a single very
// long line (large slow-query commands) is never rejected.
func (s *fileSource) scan(ctx context.Context, fn func(line string)) error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", s.path, err)
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, 1<<20)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("file", s.path).Msg("Context cancelled while reading log file.")
			return ctx.Err()
		default:
		}

		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading log file %s: %w", s.path, err)
		}
	}
}
