package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local store status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.CountWaterBodies(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "driver:       %s\n", cfg.Store.Driver)
		fmt.Fprintf(out, "database:     %s\n", cfg.Store.DatabaseURL)
		fmt.Fprintf(out, "water bodies: %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
