package main

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/akinsgre/paddlepartner-waterways/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportHeader = []string{"id", "name", "type", "latitude", "longitude", "source", "source_id"}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the local water-body store to csv, xlsx, or yaml",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		bodies, err := listAll(ctx, st)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			err = writeCSV(exportOut, bodies)
		case "xlsx":
			err = writeXLSX(exportOut, bodies)
		case "yaml":
			err = writeYAML(exportOut, bodies)
		default:
			return eris.Errorf("unsupported format %q (csv, xlsx, yaml)", exportFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("format", exportFormat),
			zap.String("out", exportOut),
			zap.Int("rows", len(bodies)),
		)
		return nil
	},
}

// listAll pages through the store.
func listAll(ctx context.Context, st store.Store) ([]store.WaterBody, error) {
	const pageSize = 1000
	var all []store.WaterBody
	for offset := 0; ; offset += pageSize {
		page, err := st.ListWaterBodies(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func exportRow(wb store.WaterBody) []string {
	return []string{
		wb.ID,
		wb.Name,
		wb.TypeTag,
		strconv.FormatFloat(wb.Latitude, 'f', -1, 64),
		strconv.FormatFloat(wb.Longitude, 'f', -1, 64),
		wb.Source,
		wb.SourceID,
	}
}

func writeCSV(path string, bodies []store.WaterBody) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, wb := range bodies {
		if err := w.Write(exportRow(wb)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush csv")
}

func writeXLSX(path string, bodies []store.WaterBody) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("water_bodies")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range exportHeader {
		row.AddCell().SetString(h)
	}
	for _, wb := range bodies {
		row := sheet.AddRow()
		for _, v := range exportRow(wb) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Save(path), "export: save xlsx")
}

func writeYAML(path string, bodies []store.WaterBody) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create yaml")
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	defer enc.Close() //nolint:errcheck
	return eris.Wrap(enc.Encode(bodies), "export: encode yaml")
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx, or yaml")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (required)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
