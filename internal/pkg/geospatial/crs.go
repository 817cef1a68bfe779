package geospatial

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Geographic is the only supported source CRS.
const Geographic = "EPSG:4326"

// sphereRadius is the authalic GRS80 sphere used by EPSG:3786.
const sphereRadius = 6371007.0

// mercatorMaxLat is the latitude at which web mercator y reaches the pole clamp.
const mercatorMaxLat = 85.0511287798066

type projection interface {
	forward(lon, lat float64) (x, y float64)
	inverse(x, y float64) (lon, lat float64)
	maxLat() float64
}

type webMercator struct{}

func (webMercator) forward(lon, lat float64) (float64, float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

func (webMercator) inverse(x, y float64) (float64, float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p[0], p[1]
}

func (webMercator) maxLat() float64 { return mercatorMaxLat }

// equidistant is the spherical equidistant cylindrical (plate carrée) projection.
type equidistant struct {
	radius float64
}

func (e equidistant) forward(lon, lat float64) (float64, float64) {
	return e.radius * toRad(lon), e.radius * toRad(lat)
}

func (e equidistant) inverse(x, y float64) (float64, float64) {
	return toDeg(x / e.radius), toDeg(y / e.radius)
}

func (equidistant) maxLat() float64 { return 90 }

var projections = map[string]projection{
	"EPSG:3857":   webMercator{},
	"EPSG:900913": webMercator{},
	"EPSG:3786":   equidistant{radius: sphereRadius},
}

// SupportedPlanarCRS lists the planar CRS identifiers NewTransformer accepts.
func SupportedPlanarCRS() []string {
	return []string{"EPSG:3786", "EPSG:3857", "EPSG:900913"}
}

// Transformer converts between geographic coordinates and one planar CRS.
// It holds no state besides its configuration and is safe for concurrent use.
type Transformer struct {
	source string
	target string
	proj   projection
}

// NewTransformer returns a transformer for the source/target CRS pair.
func NewTransformer(source, target string) (*Transformer, error) {
	source = normalizeCRS(source)
	target = normalizeCRS(target)
	if source != Geographic {
		return nil, fmt.Errorf("unsupported source crs %q (only %s)", source, Geographic)
	}
	proj, ok := projections[target]
	if !ok {
		return nil, fmt.Errorf("unsupported planar crs %q (supported: %s)", target, strings.Join(SupportedPlanarCRS(), ", "))
	}
	return &Transformer{source: source, target: target, proj: proj}, nil
}

// Target returns the planar CRS identifier.
func (t *Transformer) Target() string { return t.target }

// ToPlanar projects one geographic point.
func (t *Transformer) ToPlanar(p domain.GeoPoint) (domain.PlanarPoint, error) {
	return t.toPlanar(0, p)
}

// ToGeographic inverts one planar point.
func (t *Transformer) ToGeographic(p domain.PlanarPoint) domain.GeoPoint {
	lon, lat := t.proj.inverse(p.X, p.Y)
	return domain.GeoPoint{Lon: lon, Lat: lat}
}

// ToPlanarAll projects pts in order. The error names the first bad index.
func (t *Transformer) ToPlanarAll(pts []domain.GeoPoint) ([]domain.PlanarPoint, error) {
	out := make([]domain.PlanarPoint, len(pts))
	for i, p := range pts {
		pp, err := t.toPlanar(i, p)
		if err != nil {
			return nil, err
		}
		out[i] = pp
	}
	return out, nil
}

// ToGeographicAll inverts pts in order.
func (t *Transformer) ToGeographicAll(pts []domain.PlanarPoint) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(pts))
	for i, p := range pts {
		out[i] = t.ToGeographic(p)
	}
	return out
}

func (t *Transformer) toPlanar(i int, p domain.GeoPoint) (domain.PlanarPoint, error) {
	if err := p.Validate(); err != nil || math.Abs(p.Lat) > t.proj.maxLat() {
		return domain.PlanarPoint{}, &domain.CoordinateError{Stage: "transform " + t.target, Index: i, Point: p}
	}
	x, y := t.proj.forward(p.Lon, p.Lat)
	return domain.PlanarPoint{X: x, Y: y}, nil
}

func normalizeCRS(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !strings.HasPrefix(id, "EPSG:") {
		id = "EPSG:" + id
	}
	return id
}
