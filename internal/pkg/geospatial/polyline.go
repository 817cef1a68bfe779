package geospatial

import (
	"math"
	"sort"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Polyline is a continuous, linearly interpolated path through planar vertices.
type Polyline struct {
	pts []domain.PlanarPoint
	cum []float64 // cum[i] is the arc length from pts[0] to pts[i]
}

// NewPolyline builds a polyline over pts. pts is not copied.
func NewPolyline(pts []domain.PlanarPoint) Polyline {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + dist(pts[i-1], pts[i])
	}
	return Polyline{pts: pts, cum: cum}
}

// Points returns the polyline vertices.
func (l Polyline) Points() []domain.PlanarPoint { return l.pts }

// Length returns the total planar length.
func (l Polyline) Length() float64 {
	if len(l.cum) == 0 {
		return 0
	}
	return l.cum[len(l.cum)-1]
}

// Interpolate returns the point at arc length d, clamped to [0, Length].
func (l Polyline) Interpolate(d float64) domain.PlanarPoint {
	n := len(l.pts)
	switch {
	case n == 0:
		return domain.PlanarPoint{}
	case d <= 0:
		return l.pts[0]
	case d >= l.Length():
		return l.pts[n-1]
	}
	i := sort.SearchFloat64s(l.cum, d)
	if l.cum[i] == d {
		return l.pts[i]
	}
	a, b := l.pts[i-1], l.pts[i]
	seg := l.cum[i] - l.cum[i-1]
	t := (d - l.cum[i-1]) / seg
	return domain.PlanarPoint{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
}

// Project returns the segment of the polyline nearest to p and the position
// t in [0, 1] of the nearest point along it. Segment i joins vertex i and
// vertex i+1. Ties go to the first segment reaching the minimum distance,
// in path order.
func (l Polyline) Project(p domain.PlanarPoint) (seg int, t float64) {
	if len(l.pts) < 2 {
		return 0, 0
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(l.pts); i++ {
		a, b := l.pts[i], l.pts[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		seg2 := dx*dx + dy*dy
		var u float64
		if seg2 > 0 {
			u = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / seg2
			u = math.Max(0, math.Min(1, u))
		}
		q := domain.PlanarPoint{X: a.X + u*dx, Y: a.Y + u*dy}
		if d := dist(p, q); d < best {
			best = d
			seg, t = i, u
		}
	}
	return seg, t
}

// ArcLength returns the planar arc length at position t of segment seg.
func (l Polyline) ArcLength(seg int, t float64) float64 {
	return Measure(l.cum, seg, t)
}

func dist(a, b domain.PlanarPoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
