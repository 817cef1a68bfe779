package geospatial

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Bounds returns [minLon, minLat, maxLon, maxLat] of pts.
func Bounds(pts []domain.GeoPoint) [4]float64 {
	if len(pts) == 0 {
		return [4]float64{}
	}
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	b := ls.Bound()
	return [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}
