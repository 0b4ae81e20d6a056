package main

import (
	"context"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mongolog-insights/config"
	"mongolog-insights/internal/dataset"
	"mongolog-insights/internal/dto"
	"mongolog-insights/internal/extractor"
	"mongolog-insights/internal/parser"
	"mongolog-insights/internal/pipeline"
	"mongolog-insights/internal/service"
)

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "mongolog",
		Short:        "Extract slow queries, connections and server identity from mongod logs",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configFile != "" {
				viper.SetConfigFile(configFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a .env style config file")
	root.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	_ = viper.BindPFlag("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newAnalyzeCmd(), newServeCmd())
	return root
}

type analyzeOutput struct {
	Summary    *dto.SummaryResponse `json:"summary"`
	Namespaces []dto.NamespaceStat  `json:"namespaces"`
	Snapshot   *dataset.Snapshot    `json:"snapshot,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Run one analysis pass and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("LOG_FILE_PATH", args[0])
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			p := pipeline.New(parser.NewJSONRecordParser(), extractor.NewMongodLogExtractor())
			analysis := service.NewAnalysisService(cfg, p, nil)
			snap, err := analysis.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			reports := service.NewReportService(cfg, analysis)
			summary, err := reports.Summary()
			if err != nil {
				return err
			}
			out := analyzeOutput{
				Summary:    summary,
				Namespaces: service.AggregateNamespaces(snap.SlowQueries),
			}
			if full {
				out.Snapshot = snap
			}

			data, err := gojson.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render analysis: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include every extracted row in the output")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Analyze the log file and serve the datasets over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				viper.Set("LOG_FILE_PATH", args[0])
			}
			return runServer(context.Background())
		},
	}
	cmd.Flags().String("port", "8080", "HTTP listen port")
	_ = viper.BindPFlag("SERVER_PORT", cmd.Flags().Lookup("port"))
	return cmd
}
