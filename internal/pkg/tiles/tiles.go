// Package tiles maps geographic points onto a web mercator XYZ tile pyramid.
package tiles

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Size is the pixel width and height of a standard pyramid tile.
const Size = 256

// MaxZoom is the deepest level published by terrarium tile sets.
const MaxZoom = 15

// Locate returns the address of the tile containing p at zoom.
func Locate(p domain.GeoPoint, zoom int) domain.TileAddress {
	t := maptile.At(orb.Point{p.Lon, p.Lat}, maptile.Zoom(zoom))
	return domain.TileAddress{Z: uint32(t.Z), X: t.X, Y: t.Y}
}

// Native converts pts to web mercator, the pixel CRS of the pyramid.
func Native(pts []domain.GeoPoint) []domain.PlanarPoint {
	out := make([]domain.PlanarPoint, len(pts))
	for i, p := range pts {
		m := project.WGS84.ToMercator(orb.Point{p.Lon, p.Lat})
		out[i] = domain.PlanarPoint{X: m[0], Y: m[1]}
	}
	return out
}

// GroupRuns splits points into maximal consecutive runs that fall in the same
// tile. A tile re-entered later starts a new run. Runs share backing arrays
// with points.
func GroupRuns(points []domain.GeoPoint, zoom int) []domain.TileRun {
	if len(points) == 0 {
		return nil
	}
	native := Native(points)

	var runs []domain.TileRun
	start := 0
	cur := Locate(points[0], zoom)
	flush := func(end int) {
		runs = append(runs, domain.TileRun{
			Address: cur,
			Start:   start,
			Points:  points[start:end:end],
			Native:  native[start:end:end],
		})
	}
	for i := 1; i < len(points); i++ {
		a := Locate(points[i], zoom)
		if a == cur {
			continue
		}
		flush(i)
		start, cur = i, a
	}
	flush(len(points))
	return runs
}

// GeoTransform maps web mercator coordinates to raster row/col for a north-up
// grid anchored at its top-left corner.
type GeoTransform struct {
	MinX float64
	MaxY float64
	ResX float64
	ResY float64
}

// TileTransform returns the transform of a width x height raster covering addr.
func TileTransform(addr domain.TileAddress, width, height int) GeoTransform {
	world := 2 * math.Pi * orb.EarthRadius
	size := world / math.Exp2(float64(addr.Z))
	return GeoTransform{
		MinX: -world/2 + float64(addr.X)*size,
		MaxY: world/2 - float64(addr.Y)*size,
		ResX: size / float64(width),
		ResY: size / float64(height),
	}
}

// Index returns the pixel containing p. It may fall outside the raster.
func (g GeoTransform) Index(p domain.PlanarPoint) (row, col int) {
	col = int(math.Floor((p.X - g.MinX) / g.ResX))
	row = int(math.Floor((g.MaxY - p.Y) / g.ResY))
	return row, col
}

// Expand substitutes {z}, {x} and {y} in template.
func Expand(template string, addr domain.TileAddress) string {
	return strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(addr.Z), 10),
		"{x}", strconv.FormatUint(uint64(addr.X), 10),
		"{y}", strconv.FormatUint(uint64(addr.Y), 10),
	).Replace(template)
}

// ValidTemplate reports whether template carries all three placeholders.
func ValidTemplate(template string) bool {
	return strings.Contains(template, "{z}") &&
		strings.Contains(template, "{x}") &&
		strings.Contains(template, "{y}")
}
