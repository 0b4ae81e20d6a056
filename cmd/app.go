package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"mongolog-insights/config"
	_ "mongolog-insights/docs"
	"mongolog-insights/internal/controller"
	"mongolog-insights/internal/elasticsearch"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/kafka"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/pipeline"
	"mongolog-insights/internal/repository"
	"mongolog-insights/internal/scheduler"
	"mongolog-insights/internal/service"
	"mongolog-insights/internal/timescaledb"
)

func runServer(ctx context.Context) error {
	var wg sync.WaitGroup

	app := fx.New(
		// Core Dependencies
		fx.Provide(
			config.NewConfig,
			parser.NewJSONRecordParser,
			extractor.NewMongodLogExtractor,
			pipeline.New,
		),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			NewSnapshotSinks,
			service.NewAnalysisService,
			service.NewReportService,
			controller.NewReportController,
			controller.NewAnalysisController,
			scheduler.NewScheduler,
		),
		fx.Invoke(RegisterAPIRoutes,
			func(*cron.Cron) {},
			func(lc fx.Lifecycle, analysisSvc service.AnalysisService) {
				startInitialAnalysis(lc, &wg, analysisSvc)
			},
		),
	)

	startCtx, cancelStart := context.WithTimeout(ctx, 2*time.Minute) // sinks may retry their connections
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Error().Err(err).Msg("Failed to start application")
		return err
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}

	log.Info().Msg("Waiting for background goroutines to finish...")
	wg.Wait()
	log.Info().Msg("All background processes finished. Exiting.")
	return nil
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// NewSnapshotSinks builds every enabled sink. Disabled sinks come back nil
// and are dropped by the analysis service.
func NewSnapshotSinks(lc fx.Lifecycle, cfg *config.Config) ([]repository.SnapshotSink, error) {
	es, err := elasticsearch.NewSnapshotSink(cfg)
	if err != nil {
		return nil, err
	}
	tsdb, err := timescaledb.NewSnapshotSink(lc, cfg)
	if err != nil {
		return nil, err
	}
	producer, err := kafka.NewSnapshotSink(lc, cfg)
	if err != nil {
		return nil, err
	}
	return []repository.SnapshotSink{es, tsdb, producer}, nil
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	reportController *controller.ReportController,
	analysisController *controller.AnalysisController,
) {
	controller.RegisterReportRoutes(router, reportController)
	controller.RegisterAnalysisRoutes(router, analysisController)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// startInitialAnalysis runs the first pass in the background so the API is
// reachable (and answers 503) while a large file is processed.
func startInitialAnalysis(lc fx.Lifecycle, wg *sync.WaitGroup, analysisSvc service.AnalysisService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Info().Msg("Starting initial log analysis")
				if _, err := analysisSvc.Analyze(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("Initial log analysis failed")
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info().Msg("Cancelling any running analysis...")
			cancel()
			return nil
		},
	})
}
