package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "pricefeed",
		Short:   "Fetch, validate, and store energy-commodity price data",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/pricefeed.yaml", "path to the pipeline YAML configuration")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSourcesCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
