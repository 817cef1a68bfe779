package geospatial_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
)

func mustTransformer(t *testing.T, target string) *geospatial.Transformer {
	t.Helper()
	tr, err := geospatial.NewTransformer("EPSG:4326", target)
	require.NoError(t, err)
	return tr
}

func TestNewTransformer_UnknownCRS(t *testing.T) {
	_, err := geospatial.NewTransformer("EPSG:4326", "EPSG:99999")
	assert.Error(t, err)

	_, err = geospatial.NewTransformer("EPSG:3857", "EPSG:3786")
	assert.Error(t, err)
}

func TestTransformer_RoundTrip(t *testing.T) {
	for _, target := range geospatial.SupportedPlanarCRS() {
		tr := mustTransformer(t, target)
		in := domain.GeoPoint{Lon: -105.123456, Lat: 40.654321}
		p, err := tr.ToPlanar(in)
		require.NoError(t, err, target)
		out := tr.ToGeographic(p)
		assert.InDelta(t, in.Lon, out.Lon, 1e-9, target)
		assert.InDelta(t, in.Lat, out.Lat, 1e-9, target)
	}
}

func TestTransformer_Equidistant(t *testing.T) {
	tr := mustTransformer(t, "epsg:3786")
	p, err := tr.ToPlanar(domain.GeoPoint{Lon: 1, Lat: -1})
	require.NoError(t, err)
	deg := 6371007.0 * math.Pi / 180
	assert.InDelta(t, deg, p.X, 1e-6)
	assert.InDelta(t, -deg, p.Y, 1e-6)
}

func TestTransformer_InvalidCoordinate(t *testing.T) {
	tr := mustTransformer(t, "EPSG:3857")

	_, err := tr.ToPlanarAll([]domain.GeoPoint{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 89}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCoordinate))
	var ce *domain.CoordinateError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Index)

	_, err = tr.ToPlanar(domain.GeoPoint{Lon: math.NaN(), Lat: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	_, err = tr.ToPlanar(domain.GeoPoint{Lon: 181, Lat: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestPolyline_InterpolateAndLength(t *testing.T) {
	l := geospatial.NewPolyline([]domain.PlanarPoint{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}})
	assert.InDelta(t, 11.0, l.Length(), 1e-12)
	assert.Equal(t, domain.PlanarPoint{X: 0, Y: 0}, l.Interpolate(-1))
	assert.Equal(t, domain.PlanarPoint{X: 3, Y: 10}, l.Interpolate(100))
	assert.Equal(t, domain.PlanarPoint{X: 3, Y: 4}, l.Interpolate(5))

	mid := l.Interpolate(2.5)
	assert.InDelta(t, 1.5, mid.X, 1e-12)
	assert.InDelta(t, 2.0, mid.Y, 1e-12)
}

func TestPolyline_Project(t *testing.T) {
	l := geospatial.NewPolyline([]domain.PlanarPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})

	tests := []struct {
		name string
		p    domain.PlanarPoint
		seg  int
		t    float64
		m    float64
	}{
		{"first segment", domain.PlanarPoint{X: 4, Y: 3}, 0, 0.4, 4},
		{"second segment", domain.PlanarPoint{X: 12, Y: 5}, 1, 0.5, 15},
		{"before start", domain.PlanarPoint{X: -5, Y: -5}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, u := l.Project(tt.p)
			assert.Equal(t, tt.seg, seg)
			assert.InDelta(t, tt.t, u, 1e-12)
			assert.InDelta(t, tt.m, l.ArcLength(seg, u), 1e-12)
		})
	}

	// projecting a point already on the line is idempotent
	on := l.Interpolate(13.7)
	assert.InDelta(t, 13.7, l.ArcLength(l.Project(on)), 1e-9)
}

func TestPolyline_ProjectTieFirstSegmentWins(t *testing.T) {
	// the out-and-back line passes (5,0) twice: at m=5 and at m=15
	l := geospatial.NewPolyline([]domain.PlanarPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 0}})
	seg, u := l.Project(domain.PlanarPoint{X: 5, Y: 1})
	assert.Equal(t, 0, seg)
	assert.InDelta(t, 5.0, l.ArcLength(seg, u), 1e-12)
}

func TestMeasure(t *testing.T) {
	d := []float64{0, 10, 25}
	assert.Equal(t, 0.0, geospatial.Measure(d, 0, 0))
	assert.Equal(t, 5.0, geospatial.Measure(d, 0, 0.5))
	assert.Equal(t, 17.5, geospatial.Measure(d, 1, 0.5))
	assert.Equal(t, 25.0, geospatial.Measure(d, 1, 1))
	assert.Equal(t, 25.0, geospatial.Measure(d, 5, 0.3))
	assert.Equal(t, 0.0, geospatial.Measure(nil, 0, 0.3))
}

// On a path with corners the densified chords are shorter than the source
// arc, so m must come from the calibrated distances, not from chord lengths.
func TestReferencedMeasure_CorneredPath(t *testing.T) {
	planar := []domain.PlanarPoint{{X: 0, Y: 0}, {X: 1010, Y: 0}, {X: 1010, Y: 1010}, {X: 0, Y: 1010}}
	length := geospatial.NewPolyline(planar).Length()
	require.InDelta(t, 3030.0, length, 1e-9)

	line, err := geospatial.Densify(planar, 50)
	require.NoError(t, err)
	pts := line.Points()
	require.Len(t, pts, 60)
	assert.Less(t, line.Length(), length, "chords cut the corners")

	d, err := geospatial.Calibrate(len(pts), 50, length)
	require.NoError(t, err)
	assert.Equal(t, length, d[len(d)-1])

	for _, i := range []int{0, 17, 40, 59} {
		seg, u := line.Project(pts[i])
		assert.InDelta(t, d[i], geospatial.Measure(d, seg, u), 1e-6, "point %d", i)
	}

	// halfway between two densified points lands halfway between their m
	mid := domain.PlanarPoint{X: (pts[40].X + pts[41].X) / 2, Y: (pts[40].Y + pts[41].Y) / 2}
	seg, u := line.Project(mid)
	assert.InDelta(t, (d[40]+d[41])/2, geospatial.Measure(d, seg, u), 1e-6)
}

func TestDensify(t *testing.T) {
	tr := mustTransformer(t, "EPSG:3786")
	planar, err := tr.ToPlanarAll([]domain.GeoPoint{{Lon: -105.1, Lat: 40.1}, {Lon: -105.2, Lat: 40.2}})
	require.NoError(t, err)

	src := geospatial.NewPolyline(planar)
	line, err := geospatial.Densify(planar, 50)
	require.NoError(t, err)

	pts := line.Points()
	assert.Len(t, pts, int(math.Floor(src.Length()/50)))
	assert.Equal(t, planar[0], pts[0])
	assert.InDelta(t, planar[1].X, pts[len(pts)-1].X, 1e-6)
	assert.InDelta(t, planar[1].Y, pts[len(pts)-1].Y, 1e-6)
	assert.InDelta(t, src.Length(), line.Length(), 1e-6)

	want := src.Length() / float64(len(pts)-1)
	for i := 1; i < len(pts); i++ {
		d := math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
		assert.InDelta(t, want, d, 1e-6)
	}
}

func TestDensify_Degenerate(t *testing.T) {
	_, err := geospatial.Densify([]domain.PlanarPoint{{X: 1, Y: 1}, {X: 1, Y: 1}}, 10)
	assert.ErrorIs(t, err, domain.ErrDegenerateLine)

	// 15 / 10 floors to a single sample
	_, err = geospatial.Densify([]domain.PlanarPoint{{X: 0, Y: 0}, {X: 15, Y: 0}}, 10)
	assert.ErrorIs(t, err, domain.ErrDegenerateLine)

	_, err = geospatial.Densify([]domain.PlanarPoint{{X: 0, Y: 0}, {X: 15, Y: 0}}, 0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDegenerateLine))
}

func TestCalibrate(t *testing.T) {
	d, err := geospatial.Calibrate(5, 10, 42)
	require.NoError(t, err)
	require.Len(t, d, 5)
	assert.Equal(t, 0.0, d[0])
	assert.Equal(t, 42.0, d[4])
	for i := 1; i < len(d); i++ {
		assert.InDelta(t, 10.5, d[i]-d[i-1], 1e-12)
	}

	_, err = geospatial.Calibrate(1, 10, 42)
	assert.ErrorIs(t, err, domain.ErrDegenerateLine)
}

func TestBounds(t *testing.T) {
	b := geospatial.Bounds([]domain.GeoPoint{{Lon: -105.2, Lat: 40.2}, {Lon: -105.1, Lat: 40.1}, {Lon: -105.15, Lat: 40.3}})
	assert.Equal(t, [4]float64{-105.2, 40.1, -105.1, 40.3}, b)
}

func TestGroundLength(t *testing.T) {
	// one degree of latitude is ~111.19 km on the 6371 km sphere
	got := geospatial.GroundLength([]domain.GeoPoint{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}})
	assert.InDelta(t, 111195, got, 5)
}
