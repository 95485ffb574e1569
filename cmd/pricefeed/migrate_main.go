package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/caldera-energy/pricefeed/internal/config"
	"github.com/caldera-energy/pricefeed/internal/db"
	"github.com/caldera-energy/pricefeed/internal/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the storage schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), func(r *migrations.Runner) error { return r.Up() })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), func(r *migrations.Runner) error { return r.Down() })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), func(r *migrations.Runner) error {
				v, dirty, err := r.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version=%d dirty=%v\n", v, dirty)
				return nil
			})
		},
	})

	return cmd
}

func runMigrate(parent context.Context, apply func(*migrations.Runner) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	dbMgr, err := db.Open(ctx, db.DefaultPoolConfig(cfg.Storage.DSN))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer dbMgr.Close()

	runner, err := migrations.NewRunner(dbMgr.DB.DB)
	if err != nil {
		return fmt.Errorf("build migration runner: %w", err)
	}
	defer runner.Close()

	if err := apply(runner); err != nil {
		return err
	}
	log.Info().Msg("migration command completed")
	return nil
}
