package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/pipeline"
	"mongolog-insights/internal/reader"
	"mongolog-insights/internal/repository"
)

var (
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	ErrNoSnapshot         = errors.New("no analysis has completed yet")
)

type AnalysisService interface {
	// Analyze runs the pipeline over the configured log file and publishes
	// the result as the latest snapshot.
	Analyze(ctx context.Context) (*dataset.Snapshot, error)
	Latest() (*dataset.Snapshot, error)
}

type SourceFactory func(path string) reader.LineSource

type analysisService struct {
	cfg         *config.AnalysisConfig
	pipeline    *pipeline.Pipeline
	sinks       []repository.SnapshotSink
	newSource   SourceFactory
	processLock sync.Mutex

	mu     sync.RWMutex
	latest *dataset.Snapshot
}

func NewAnalysisService(
	cfg *config.Config,
	p *pipeline.Pipeline,
	sinks []repository.SnapshotSink,
) AnalysisService {
	every := cfg.Analysis.ProgressEvery
	return NewAnalysisServiceWithSource(cfg, p, sinks, func(path string) reader.LineSource {
		return reader.NewFileSource(path, reader.NewLogProgress(path, every))
	})
}

func NewAnalysisServiceWithSource(
	cfg *config.Config,
	p *pipeline.Pipeline,
	sinks []repository.SnapshotSink,
	newSource SourceFactory,
) AnalysisService {
	active := make([]repository.SnapshotSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &analysisService{
		cfg:       &cfg.Analysis,
		pipeline:  p,
		sinks:     active,
		newSource: newSource,
	}
}

func (s *analysisService) Analyze(ctx context.Context) (*dataset.Snapshot, error) {
	if !s.processLock.TryLock() {
		log.Warn().Msg("Log analysis already in progress, skipping run.")
		return nil, ErrAnalysisInProgress
	}
	defer s.processLock.Unlock()

	runID := uuid.NewString()
	snap, err := s.pipeline.Run(ctx, s.newSource(s.cfg.LogFilePath))
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Str("file", s.cfg.LogFilePath).Msg("Log analysis failed")
		return nil, fmt.Errorf("analysis of %s failed: %w", s.cfg.LogFilePath, err)
	}
	snap.RunID = runID

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	s.publish(ctx, snap)
	return snap, nil
}

func (s *analysisService) Latest() (*dataset.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoSnapshot
	}
	return s.latest, nil
}

// publish hands the snapshot to every sink. A failing sink is logged and
// skipped.
func (s *analysisService) publish(ctx context.Context, snap *dataset.Snapshot) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, snap); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Str("run_id", snap.RunID).Msg("Failed to publish snapshot")
			continue
		}
		log.Info().Str("sink", sink.Name()).Str("run_id", snap.RunID).Msg("Published snapshot")
	}
}
