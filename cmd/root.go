package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinsgre/paddlepartner-waterways/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "waterways",
	Short: "Water-body search for paddlers",
	Long:  "Searches community water bodies and OpenStreetMap features near a put-in, imports hydrography shapefiles into a local store, and serves the search over HTTP.",
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
