package usecases

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
	"github.com/samirrijal/elevprofile/internal/pkg/telemetry"
)

// Sampler extracts elevations for tile runs, one concurrent task per run.
type Sampler struct {
	opener   ports.TileOpener
	workers  int
	failFast bool
}

// NewSampler creates a Sampler running at most workers runs at once. With
// failFast the first failed run cancels the others and fails the batch;
// otherwise failures are recorded per run.
func NewSampler(opener ports.TileOpener, workers int, failFast bool) *Sampler {
	if workers < 1 {
		workers = 1
	}
	return &Sampler{opener: opener, workers: workers, failFast: failFast}
}

// SampleRun opens the run's tile once and reads one pixel per point.
// It returns every elevation or none.
func (s *Sampler) SampleRun(ctx context.Context, run domain.TileRun) (vals []int, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSampleRun)
	span.SetAttributes(
		attribute.String("tile", run.Address.String()),
		attribute.Int("points", run.Len()),
	)
	defer func() {
		metrics.TileRunsSampled.WithLabelValues(runOutcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raster, err := s.opener.Open(ctx, run.Address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var te *domain.TileError
		if !errors.As(err, &te) {
			err = &domain.TileError{Address: run.Address, Err: err}
		}
		return nil, err
	}
	defer raster.Close()

	out := make([]int, len(run.Native))
	for i, p := range run.Native {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, col := raster.RowCol(p)
		v, err := raster.ElevationAt(row, col)
		if err != nil {
			var se *domain.SampleError
			if !errors.As(err, &se) {
				err = &domain.SampleError{Address: run.Address, Row: row, Col: col}
			}
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

// SampleAll samples every run and returns results in run order, regardless
// of completion order. The error is non-nil only when ctx is cancelled or,
// in fail-fast mode, when a run fails.
func (s *Sampler) SampleAll(ctx context.Context, runs []domain.TileRun) ([]domain.RunResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSample)
	span.SetAttributes(attribute.Int("runs", len(runs)))
	defer span.End()

	results := make([]domain.RunResult, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, run := range runs {
		g.Go(func() error {
			vals, err := s.SampleRun(gctx, run)
			if err != nil {
				results[i] = domain.FailedRun(i, err)
				if s.failFast {
					return err
				}
				return nil
			}
			results[i] = domain.RunResult{Run: i, Elevations: vals}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTileUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrSampleOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}
