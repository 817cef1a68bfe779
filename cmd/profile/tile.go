package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/elevprofile/internal/adapters/tilesource"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

func newTileCmd() *cobra.Command {
	var (
		lon, lat float64
		zoom     int
		sample   bool
	)

	cmd := &cobra.Command{
		Use:   "tile",
		Short: "Show the tile and pixel serving a coordinate, optionally sampling it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.GeoPoint{Lon: lon, Lat: lat}
			if err := p.Validate(); err != nil {
				return &domain.CoordinateError{Stage: "tile", Point: p}
			}
			if zoom < 0 || zoom > tiles.MaxZoom {
				return fmt.Errorf("%w: zoom must be 0-%d, got %d", domain.ErrInvalidSettings, tiles.MaxZoom, zoom)
			}

			addr := tiles.Locate(p, zoom)
			native := tiles.Native([]domain.GeoPoint{p})[0]
			row, col := tiles.TileTransform(addr, tiles.Size, tiles.Size).Index(native)
			fmt.Fprintf(cmd.OutOrStdout(), "tile %s pixel row=%d col=%d\n", addr, row, col)

			if !sample {
				return nil
			}

			fetcher, closeFn, err := tilesource.FromConfig(cmd.Context(), cfg.Tiles, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			raster, err := tilesource.NewOpener(fetcher).Open(cmd.Context(), addr)
			if err != nil {
				return err
			}
			defer raster.Close()

			elev, err := raster.ElevationAt(raster.RowCol(native))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "elevation %.2f m (source %s)\n", elev, fetcher.Source())
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&lon, "lon", 0, "longitude (WGS 84)")
	f.Float64Var(&lat, "lat", 0, "latitude (WGS 84)")
	f.IntVar(&zoom, "zoom", 9, "tile zoom level")
	f.BoolVar(&sample, "sample", false, "fetch the tile and print the elevation")
	_ = cmd.MarkFlagRequired("lon")
	_ = cmd.MarkFlagRequired("lat")

	return cmd
}
