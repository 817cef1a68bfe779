package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/elevprofile/internal/adapters/geojson"
	"github.com/samirrijal/elevprofile/internal/adapters/postgres"
	"github.com/samirrijal/elevprofile/internal/app"
	"github.com/samirrijal/elevprofile/internal/core/ports"
)

type buildOptions struct {
	line     string
	pois     string
	segments string
	step     float64
	zoom     int
	out      string
	store    bool
	indent   bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Densify a line, sample elevations and reference POIs and segments",
		Example: `  profile build --line trail.geojson --pois pois.geojson --segments legs.geojson --step 25 --zoom 12
  profile build --line trail.geojson --out trail-profile.json --store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.line, "line", "", "GeoJSON file holding the LineString (required)")
	f.StringVar(&opts.pois, "pois", "", "GeoJSON file of points of interest")
	f.StringVar(&opts.segments, "segments", "", "GeoJSON file of segments; each is referenced by its end point")
	f.Float64Var(&opts.step, "step", 0, "densification step in planar meters (default profile.step)")
	f.IntVar(&opts.zoom, "zoom", 0, "tile zoom level (default profile.zoom)")
	f.StringVar(&opts.out, "out", "", "write the profile to this file instead of stdout")
	f.BoolVar(&opts.store, "store", false, "also save the profile to the database")
	f.BoolVar(&opts.indent, "indent", false, "indent the JSON output")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	ctx := cmd.Context()

	var zoom *int
	if cmd.Flags().Changed("zoom") {
		zoom = &opts.zoom
	}
	req, err := geojson.ReadRequestFiles(opts.line, opts.pois, opts.segments, opts.step, zoom)
	if err != nil {
		return err
	}

	var repo ports.ProfileRepository
	if opts.store {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		repo = postgres.NewProfileRepo(db)
	}

	svc, closeTiles, err := app.NewProfileService(ctx, cfg, repo, nil, nil)
	if err != nil {
		return err
	}
	defer closeTiles()

	profile, err := svc.Build(ctx, req)
	if err != nil {
		return err
	}
	s := profile.Summary()
	slog.Info("profile built", "id", s.ID, "points", s.Points, "length", s.Length,
		"missing", s.Missing, "stored", opts.store)

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		file, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	if opts.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(profile)
}
