package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/adapters/tilesource"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

func flatTile(t *testing.T, elev float64) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, tiles.Size, tiles.Size))
	r, g, b := tilesource.EncodeTerrarium(elev)
	for y := 0; y < tiles.Size; y++ {
		for x := 0; x < tiles.Size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestTileCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out := execute(t, "tile", "--lon", "-105.15", "--lat", "40.15", "--zoom", "9")
	addr := tiles.Locate(domain.GeoPoint{Lon: -105.15, Lat: 40.15}, 9)
	assert.Contains(t, out, "tile "+addr.String()+" pixel")
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	body := flatTile(t, 1500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("ELEVPROFILE_TILES_URL_TEMPLATE", srv.URL+"/{z}/{x}/{y}.png")

	line := filepath.Join(dir, "line.geojson")
	require.NoError(t, os.WriteFile(line, []byte(
		`{"type":"LineString","coordinates":[[-105.1,40.1],[-105.2,40.2]]}`), 0o644))
	pois := filepath.Join(dir, "pois.geojson")
	require.NoError(t, os.WriteFile(pois, []byte(
		`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"category":"summit","label":"mid"},`+
			`"geometry":{"type":"Point","coordinates":[-105.15,40.15]}}]}`), 0o644))
	outFile := filepath.Join(dir, "profile.json")

	execute(t, "build", "--line", line, "--pois", pois, "--step", "500", "--zoom", "10", "--out", outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var p domain.Profile
	require.NoError(t, json.Unmarshal(data, &p))
	require.NotEmpty(t, p.MElevations)
	assert.Len(t, p.MPoints, len(p.MElevations))
	for _, s := range p.MElevations {
		require.NotNil(t, s.Z)
		assert.Equal(t, 1500, *s.Z)
	}
	require.Len(t, p.MPOIs, 1)
	assert.Equal(t, "summit", p.MPOIs[0].Category)
	assert.Equal(t, 10, p.Zoom)
	assert.Empty(t, p.Gaps)
}
