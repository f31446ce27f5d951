package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hewan-health/geoaudit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geoaudit",
	Short: "Coordinate audit for DHIS2 tracker data",
	Long:  "Pulls events and tracked entities from a DHIS2 instance, resolves each record's coordinate, and flags records registered outside their woreda's allowed radius.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
