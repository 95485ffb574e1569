package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/caldera-energy/pricefeed/internal/config"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured data sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesList()
		},
	}
}

func runSourcesList() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	names := make([]string, 0, len(cfg.DataSources))
	for name := range cfg.DataSources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sc := cfg.DataSources[name]
		status := "disabled"
		if sc.Enabled {
			status = "enabled"
		}
		fmt.Printf("%-8s %-10s %v\n", name, status, sc.NativeIDs())
	}
	return nil
}
