package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/caldera-energy/pricefeed/internal/config"
	"github.com/caldera-energy/pricefeed/internal/db"
	"github.com/caldera-energy/pricefeed/internal/metrics"
	"github.com/caldera-energy/pricefeed/internal/model"
	"github.com/caldera-energy/pricefeed/internal/pipeline"
	"github.com/caldera-energy/pricefeed/internal/sources"
	"github.com/caldera-energy/pricefeed/internal/storage/postgres"
)

func newRunCmd() *cobra.Command {
	var (
		mode                     string
		sourceNames              []string
		commodities              []string
		timeout                  time.Duration
		qualityThreshold         float64
		excludeWeekends          bool
		continueOnPartialFailure bool
		maxParallelFetches       int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one ingestion run",
		Long:  "Fetch, validate, and store price data for the configured sources over a computed or explicit window.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := model.RunOptions{
				Mode:               model.RunMode(mode),
				Sources:            sourceNames,
				Commodities:        commodities,
				QualityThreshold:   qualityThreshold,
				MaxParallelFetches: maxParallelFetches,
			}
			if cmd.Flags().Changed("exclude-weekends") {
				opts.ExcludeWeekends = &excludeWeekends
			}
			if cmd.Flags().Changed("continue-on-partial-failure") {
				opts.ContinueOnPartialFailure = &continueOnPartialFailure
			}
			return runRun(cmd.Context(), opts, timeout)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "incremental", "fetch mode: incremental, full_refresh, or backfill")
	cmd.Flags().StringSliceVar(&sourceNames, "sources", nil, "subset of sources to run (default: all enabled)")
	cmd.Flags().StringSliceVar(&commodities, "commodities", nil, "subset of canonical commodity symbols to run")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "run deadline")
	cmd.Flags().Float64Var(&qualityThreshold, "quality-threshold", 0, "override the configured quality gate (0 keeps the config default)")
	cmd.Flags().BoolVar(&excludeWeekends, "exclude-weekends", true, "override the configured weekend-exclusion flag for completeness scoring")
	cmd.Flags().BoolVar(&continueOnPartialFailure, "continue-on-partial-failure", true, "override the configured partial-failure policy")
	cmd.Flags().IntVar(&maxParallelFetches, "max-parallel-fetches", 0, "cap fan-out concurrency (0 means one worker per enabled source)")

	return cmd
}

func runRun(parent context.Context, opts model.RunOptions, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	dbMgr, err := db.Open(ctx, db.DefaultPoolConfig(cfg.Storage.DSN))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer dbMgr.Close()

	store := postgres.New(dbMgr.DB, 30*time.Second)
	clients, err := buildClients(cfg)
	if err != nil {
		return fmt.Errorf("build source clients: %w", err)
	}

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	orch := &pipeline.Orchestrator{
		Clients: clients,
		Store:   store,
		Config:  cfg,
		Metrics: reg,
	}

	result, err := orch.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	log.Info().
		Str("run_id", result.RunID.String()).
		Str("status", string(result.Status)).
		Msg("run completed")
	fmt.Println(result.Summary)

	if result.Status == model.RunFailed {
		return fmt.Errorf("run failed: see summary above")
	}
	return nil
}

func buildClients(cfg *config.Config) (map[string]sources.Client, error) {
	clients := map[string]sources.Client{}

	if sc, ok := cfg.DataSources["eia"]; ok && sc.Enabled {
		key, err := config.EIAAPIKey()
		if err != nil {
			return nil, err
		}
		client, err := sources.NewEIAClient("https://api.eia.gov/v2/seriesid", key, cfg.CacheTTL())
		if err != nil {
			return nil, err
		}
		clients["eia"] = client
	}

	if sc, ok := cfg.DataSources["fred"]; ok && sc.Enabled {
		key, err := config.FREDAPIKey()
		if err != nil {
			return nil, err
		}
		client, err := sources.NewFREDClient("https://api.stlouisfed.org/fred", key, cfg.CacheTTL())
		if err != nil {
			return nil, err
		}
		clients["fred"] = client
	}

	if sc, ok := cfg.DataSources["quote"]; ok && sc.Enabled {
		clients["quote"] = sources.NewQuoteClient("https://query1.finance.example.com/v8/finance/chart", cfg.CacheTTL())
	}

	return clients, nil
}
