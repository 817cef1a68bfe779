package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Densify resamples the path through vertices at a uniform planar spacing.
//
// It produces exactly floor(L/step) points at arc lengths of the source path
// evenly spaced over [0, L], i.e. L/(n-1) apart along the source. Vertices
// between samples are not preserved, so a chord that cuts a corner is
// shorter than L/(n-1) and the densified line can be shorter than L.
func Densify(vertices []domain.PlanarPoint, step float64) (Polyline, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return Polyline{}, fmt.Errorf("densify: step must be a positive number, got %v", step)
	}
	src := NewPolyline(vertices)
	length := src.Length()
	if length == 0 {
		return Polyline{}, &domain.LineError{Stage: "densify", Reason: "planar length is 0"}
	}
	steps := int(math.Floor(length / step))
	if steps < 2 {
		return Polyline{}, &domain.LineError{
			Stage:  "densify",
			Reason: fmt.Sprintf("length %.3f with step %.3f yields %d sample(s), need at least 2", length, step, steps),
		}
	}

	out := make([]domain.PlanarPoint, steps)
	last := float64(steps - 1)
	for i := range out {
		d := length * float64(i) / last
		if i == steps-1 {
			d = length
		}
		out[i] = src.Interpolate(d)
	}
	return NewPolyline(out), nil
}
