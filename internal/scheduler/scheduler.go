package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"mongolog-insights/config"
	"mongolog-insights/internal/service"
)

// NewCron accepts six-field specs (seconds first) as well as descriptors
// such as @every 10m.
func NewCron() *cron.Cron {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	return cron.New(cron.WithParser(parser))
}

// AddAnalysisJob registers a job that re-runs the analysis on schedule. A run
// that overlaps with one already in flight is skipped. Cancelling ctx aborts
// the run in progress.
func AddAnalysisJob(ctx context.Context, c *cron.Cron, schedule string, analysisSvc service.AnalysisService) error {
	_, err := c.AddFunc(schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := analysisSvc.Analyze(ctx); err != nil {
			if errors.Is(err, service.ErrAnalysisInProgress) || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("Error during scheduled log analysis")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid analysis schedule %q: %w", schedule, err)
	}
	return nil
}

// NewScheduler returns nil when no schedule is configured.
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, analysisSvc service.AnalysisService) (*cron.Cron, error) {
	schedule := cfg.Analysis.Schedule
	if schedule == "" {
		log.Info().Msg("No analysis schedule configured, scheduled re-analysis disabled")
		return nil, nil
	}

	c := NewCron()
	jobCtx, cancel := context.WithCancel(context.Background())
	if err := AddAnalysisJob(jobCtx, c, schedule, analysisSvc); err != nil {
		cancel()
		return nil, err
	}
	log.Info().Str("schedule", schedule).Msg("Scheduled log analysis job")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			cancel()
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}
