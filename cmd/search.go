package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/akinsgre/paddlepartner-waterways/internal/search"
	"github.com/akinsgre/paddlepartner-waterways/internal/waterbody"
)

var (
	searchLat     float64
	searchLng     float64
	searchRadius  float64
	searchName    string
	searchOffline bool
	searchNoOSM   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search water bodies near a coordinate or by name",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		ctx := cmd.Context()
		searcher, closeFn, err := newSearcher(ctx, searchOffline)
		if err != nil {
			return err
		}
		defer closeFn()

		q := search.Query{
			Name:            searchName,
			RadiusMeters:    searchRadius,
			IncludeExternal: cfg.Search.IncludeExternal && !searchNoOSM,
		}
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
			q.Origin = &waterbody.LatLng{Lat: searchLat, Lng: searchLng}
		}
		if q.RadiusMeters <= 0 {
			q.RadiusMeters = cfg.Search.RadiusMeters
		}

		result, err := searcher.Search(ctx, q)
		if err != nil {
			return err
		}

		renderItems(cmd.OutOrStdout(), result.Items)
		return nil
	},
}

// renderItems prints the display list: one line per water-body group with its
// sections indented, and one line per map candidate.
func renderItems(w io.Writer, items []waterbody.DisplayItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no water bodies found")
		return
	}

	for _, item := range items {
		switch item.Kind {
		case waterbody.ItemKindGroup:
			g := item.Group
			fmt.Fprintf(w, "%s%s%s\n", g.Name, tagSuffix(g.TypeTag), distanceSuffix(g.DistanceMeters))
			for _, s := range g.Sections {
				if s.Name != "" {
					fmt.Fprintf(w, "  - %s\n", s.Name)
				}
			}
		case waterbody.ItemKindExternal:
			c := item.External
			fmt.Fprintf(w, "%s%s%s [map]\n", c.Name, tagSuffix(c.TypeTag), distanceSuffix(c.DistanceMeters))
		}
	}
}

func tagSuffix(tag string) string {
	if tag == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", tag)
}

func distanceSuffix(meters *float64) string {
	if meters == nil {
		return ""
	}
	return " - " + waterbody.FormatDistance(*meters)
}

func init() {
	searchCmd.Flags().Float64Var(&searchLat, "lat", 0, "origin latitude")
	searchCmd.Flags().Float64Var(&searchLng, "lng", 0, "origin longitude")
	searchCmd.Flags().Float64Var(&searchRadius, "radius", 0, "search radius in meters (default from config)")
	searchCmd.Flags().StringVar(&searchName, "name", "", "search by water-body name instead of coordinate")
	searchCmd.Flags().BoolVar(&searchOffline, "offline", false, "search the local store instead of the backend API")
	searchCmd.Flags().BoolVar(&searchNoOSM, "no-osm", false, "skip OpenStreetMap candidates")
	rootCmd.AddCommand(searchCmd)
}
