package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84, lon/lat order).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Validate reports ErrInvalidCoordinate for NaN, infinite or out-of-range values.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
		return ErrInvalidCoordinate
	}
	if p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Pair returns the point as a [lon, lat] array.
func (p GeoPoint) Pair() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lon, p.Lat)
}

// PlanarPoint is a coordinate in a projected, metric CRS.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is an ordered sequence of at least two geographic vertices.
type Path []GeoPoint

// Validate checks vertex ranges and rejects repeated consecutive vertices.
func (p Path) Validate() error {
	if len(p) < 2 {
		return &LineError{Stage: "validate", Reason: fmt.Sprintf("path needs at least 2 vertices, got %d", len(p))}
	}
	for i, pt := range p {
		if err := pt.Validate(); err != nil {
			return &CoordinateError{Stage: "validate", Index: i, Point: pt}
		}
		if i > 0 && pt == p[i-1] {
			return &LineError{Stage: "validate", Reason: fmt.Sprintf("vertices %d and %d are identical %s", i-1, i, pt)}
		}
	}
	return nil
}
