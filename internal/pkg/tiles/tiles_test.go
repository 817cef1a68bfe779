package tiles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

func TestLocate(t *testing.T) {
	assert.Equal(t, domain.TileAddress{Z: 0, X: 0, Y: 0}, tiles.Locate(domain.GeoPoint{Lon: 12, Lat: 34}, 0))
	assert.Equal(t, domain.TileAddress{Z: 1, X: 0, Y: 0}, tiles.Locate(domain.GeoPoint{Lon: -0.5, Lat: 0.5}, 1))
	assert.Equal(t, domain.TileAddress{Z: 1, X: 1, Y: 1}, tiles.Locate(domain.GeoPoint{Lon: 10, Lat: -10}, 1))
}

func TestLocateAndIndexAgree(t *testing.T) {
	pts := []domain.GeoPoint{
		{Lon: -105.1, Lat: 40.1},
		{Lon: -105.2, Lat: 40.2},
		{Lon: 2.35, Lat: 48.85},
		{Lon: 151.2, Lat: -33.86},
		{Lon: -179.9, Lat: 84},
	}
	native := tiles.Native(pts)
	for _, zoom := range []int{0, 5, 9, 12, 15} {
		for i, p := range pts {
			addr := tiles.Locate(p, zoom)
			row, col := tiles.TileTransform(addr, tiles.Size, tiles.Size).Index(native[i])
			assert.True(t, row >= 0 && row < tiles.Size, "row %d for %s at z%d", row, p, zoom)
			assert.True(t, col >= 0 && col < tiles.Size, "col %d for %s at z%d", col, p, zoom)
		}
	}
}

func TestTileTransform_Corners(t *testing.T) {
	g := tiles.TileTransform(domain.TileAddress{Z: 0}, 256, 256)
	row, col := g.Index(domain.PlanarPoint{X: g.MinX + 0.1, Y: g.MaxY - 0.1})
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	row, col = g.Index(domain.PlanarPoint{X: -g.MinX - 0.1, Y: -g.MaxY + 0.1})
	assert.Equal(t, 255, row)
	assert.Equal(t, 255, col)

	row, col = g.Index(domain.PlanarPoint{X: g.MinX - 1, Y: g.MaxY + 1})
	assert.Equal(t, -1, row)
	assert.Equal(t, -1, col)
}

func TestGroupRuns(t *testing.T) {
	// z1 splits the world at lon 0 / lat 0
	pts := []domain.GeoPoint{
		{Lon: -10, Lat: 10}, {Lon: -5, Lat: 10}, // 1/0/0
		{Lon: 5, Lat: 10},                        // 1/1/0
		{Lon: -5, Lat: 10}, {Lon: -6, Lat: 10}, // back into 1/0/0
	}
	runs := tiles.GroupRuns(pts, 1)
	require.Len(t, runs, 3)

	assert.Equal(t, domain.TileAddress{Z: 1, X: 0, Y: 0}, runs[0].Address)
	assert.Equal(t, 0, runs[0].Start)
	assert.Equal(t, 2, runs[0].Len())

	assert.Equal(t, domain.TileAddress{Z: 1, X: 1, Y: 0}, runs[1].Address)
	assert.Equal(t, 2, runs[1].Start)
	assert.Equal(t, 1, runs[1].Len())

	assert.Equal(t, runs[0].Address, runs[2].Address)
	assert.Equal(t, 3, runs[2].Start)
	assert.Equal(t, 2, runs[2].Len())

	assertPartition(t, pts, runs)
}

// assertPartition checks that the runs, concatenated in order, reproduce pts
// exactly and that each run starts where the previous one ended.
func assertPartition(t *testing.T, pts []domain.GeoPoint, runs []domain.TileRun) {
	t.Helper()
	native := tiles.Native(pts)
	var (
		gotPts    []domain.GeoPoint
		gotNative []domain.PlanarPoint
	)
	for i, r := range runs {
		require.NotZero(t, r.Len(), "run %d is empty", i)
		require.Len(t, r.Native, r.Len())
		require.Equal(t, len(gotPts), r.Start, "run %d start", i)
		if i > 0 {
			assert.NotEqual(t, runs[i-1].Address, r.Address, "runs %d and %d should be merged", i-1, i)
		}
		for _, p := range r.Points {
			assert.Equal(t, r.Address, tiles.Locate(p, int(r.Address.Z)))
		}
		gotPts = append(gotPts, r.Points...)
		gotNative = append(gotNative, r.Native...)
	}
	assert.Equal(t, pts, gotPts)
	assert.Equal(t, native, gotNative)
}

func TestGroupRuns_Partition(t *testing.T) {
	// zigzag across many tile boundaries, re-entering tiles
	var pts []domain.GeoPoint
	for i := 0; i < 2000; i++ {
		lat := 40 + 0.3*float64(i%50)/50
		if (i/50)%2 == 1 {
			lat = 40.3 - 0.3*float64(i%50)/50
		}
		pts = append(pts, domain.GeoPoint{Lon: -106 + 0.0005*float64(i), Lat: lat})
	}
	for _, zoom := range []int{0, 6, 9, 12} {
		runs := tiles.GroupRuns(pts, zoom)
		assertPartition(t, pts, runs)
	}
}

func TestGroupRuns_Empty(t *testing.T) {
	assert.Nil(t, tiles.GroupRuns(nil, 9))
}

func TestExpand(t *testing.T) {
	addr := domain.TileAddress{Z: 9, X: 106, Y: 193}
	assert.Equal(t, "https://example.test/terrarium/9/106/193.png",
		tiles.Expand("https://example.test/terrarium/{z}/{x}/{y}.png", addr))
	assert.True(t, tiles.ValidTemplate("{z}/{x}/{y}"))
	assert.False(t, tiles.ValidTemplate("{z}/{x}.png"))
}
