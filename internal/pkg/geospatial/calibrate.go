package geospatial

import (
	"fmt"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Calibrate rescales nominal per-sample distances i*step so the last of n
// samples lands exactly on length.
func Calibrate(n int, step, length float64) ([]float64, error) {
	if n < 2 {
		return nil, &domain.LineError{Stage: "calibrate", Reason: fmt.Sprintf("need at least 2 samples, got %d", n)}
	}
	if step <= 0 {
		return nil, fmt.Errorf("calibrate: step must be positive, got %v", step)
	}
	scale := length / (float64(n-1) * step)
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step * scale
	}
	out[n-1] = length
	return out, nil
}

// Measure maps position t of segment seg onto the per-vertex distances d,
// interpolating linearly between d[seg] and d[seg+1].
func Measure(d []float64, seg int, t float64) float64 {
	switch {
	case len(d) == 0:
		return 0
	case seg < 0:
		return d[0]
	case seg >= len(d)-1:
		return d[len(d)-1]
	}
	return d[seg] + t*(d[seg+1]-d[seg])
}
