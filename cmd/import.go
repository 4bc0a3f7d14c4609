package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinsgre/paddlepartner-waterways/internal/fetcher"
	"github.com/akinsgre/paddlepartner-waterways/internal/importer"
)

var (
	importShapefile string
	importURL       string
	importSource    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import water bodies from a hydrography shapefile",
	Long:  "Loads a local shapefile, or downloads a shapefile ZIP over HTTP or FTP, into the local water-body store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if importShapefile == "" && importURL == "" {
			return eris.New("either --shapefile or --url is required")
		}

		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		source := importSource
		if source == "" {
			source = cfg.Import.Source
		}

		im := importer.New(st,
			fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RateLimiters: fetcher.DefaultRateLimiters()}),
			fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
		)
		im.CacheDir = cfg.Import.CacheDir

		var n int64
		if importShapefile != "" {
			n, err = im.ImportFile(ctx, importShapefile, source)
		} else {
			n, err = im.ImportURL(ctx, importURL, source)
		}
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int64("rows", n),
			zap.String("source", source),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importShapefile, "shapefile", "", "path to a local .shp file")
	importCmd.Flags().StringVar(&importURL, "url", "", "http(s) or ftp URL of a shapefile ZIP")
	importCmd.Flags().StringVar(&importSource, "source", "", "source label for imported rows (default from config)")
	rootCmd.AddCommand(importCmd)
}
