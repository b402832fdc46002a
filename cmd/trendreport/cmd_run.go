package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/llm"
	"github.com/smallnest/trendreport/log"
	"github.com/smallnest/trendreport/pipeline"
	"github.com/smallnest/trendreport/report"
)

var runFlags struct {
	config      string
	out         string
	logLevel    string
	store       string
	storeDSN    string
	metricsFile string
	offline     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce a report",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.config, "config", "", "YAML configuration file")
	f.StringVar(&runFlags.out, "out", "", "Output directory (overrides output_dir)")
	f.StringVar(&runFlags.logLevel, "log-level", "", "debug, info, warn, error or none")
	f.StringVar(&runFlags.store, "store", "", "Checkpoint backend: none, memory, file, sqlite, redis or postgres")
	f.StringVar(&runFlags.storeDSN, "store-dsn", "", "Directory, file, address or connection string of the store")
	f.StringVar(&runFlags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.BoolVar(&runFlags.offline, "offline", false, "Use no search, no model and synthetic prices")
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if runFlags.config != "" {
		var err error
		if cfg, err = config.Load(runFlags.config); err != nil {
			return config.Config{}, err
		}
	}
	if cmd.Flags().Changed("out") {
		cfg.OutputDir = runFlags.out
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = runFlags.logLevel
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = runFlags.store
	}
	if cmd.Flags().Changed("store-dsn") {
		cfg.Store.DSN = runFlags.storeDSN
	}
	if runFlags.offline {
		cfg.LLM.Provider = "none"
		cfg.Search.Provider = "none"
		cfg.Finance.Provider = "offline"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	cfg.ResolveSecrets(os.Getenv)
	return cfg, nil
}

func setupLogger(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetDefaultLogger(log.NewGologLoggerWithLevel(lvl, "[trendreport]"))
	return nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cps, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer closeStore()

	metrics := pipeline.NewMetrics()
	var opts []pipeline.Option
	if cps != nil {
		opts = append(opts, pipeline.WithStore(cps))
	}
	runner := pipeline.New(pipeline.Deps{
		Searcher:      newSearcher(cfg.Search),
		Summarizer:    llm.New(cfg.LLM),
		Fetcher:       newFetcher(cfg.Finance),
		Exporter:      report.NewExporter(cfg.Export, cfg.Output.Format),
		MarketResults: cfg.Search.MaxResults,
		OutputDir:     cfg.OutputDir,
		ExportName:    cfg.Export.Name,
		Metrics:       metrics,
	}, opts...)

	sum, runErr := runner.Run(ctx, cfg.Run)
	if runFlags.metricsFile != "" {
		if err := metrics.WriteTextfile(runFlags.metricsFile); err != nil {
			log.Warn("metrics not written: %v", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum))
	return nil
}
