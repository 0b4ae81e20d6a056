package reader

import "github.com/rs/zerolog/log"

const (
	StageCounting   = "counting"
	StageProcessing = "processing"
)

// ProgressReporter receives advisory line counts. total is 0 while counting.
type ProgressReporter interface {
	Progress(stage string, done, total int64)
	Finished(stage string, done int64)
}

type logProgress struct {
	every int64
	file  string
}

// NewLogProgress reports through zerolog every n lines.
func NewLogProgress(file string, every int64) ProgressReporter {
	if every <= 0 {
		every = 100000
	}
	return &logProgress{every: every, file: file}
}

func (p *logProgress) Progress(stage string, done, total int64) {
	if done%p.every != 0 {
		return
	}
	event := log.Info().Str("file", p.file).Str("stage", stage).Int64("lines", done)
	if total > 0 {
		event = event.Int64("total", total).Float64("percent", float64(done)*100/float64(total))
	}
	event.Msg("Reading log lines")
}

func (p *logProgress) Finished(stage string, done int64) {
	log.Info().Str("file", p.file).Str("stage", stage).Int64("lines", done).Msg("Finished reading log lines")
}

type nopProgress struct{}

func (nopProgress) Progress(string, int64, int64) {}
func (nopProgress) Finished(string, int64)        {}

// NopProgress discards all progress reports.
func NopProgress() ProgressReporter {
	return nopProgress{}
}
