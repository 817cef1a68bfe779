package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// RetryPolicy bounds the retries of a tile open.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryingOpener retries tile opens that fail with domain.ErrTileUnavailable
// using exponential backoff. Other errors are returned immediately.
type RetryingOpener struct {
	next   ports.TileOpener
	policy RetryPolicy
}

// NewRetryingOpener wraps next with policy.
func NewRetryingOpener(next ports.TileOpener, policy RetryPolicy) *RetryingOpener {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 250 * time.Millisecond
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &RetryingOpener{next: next, policy: policy}
}

// Open implements ports.TileOpener.
func (o *RetryingOpener) Open(ctx context.Context, addr domain.TileAddress) (ports.Raster, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = o.policy.InitialInterval
	eb.MaxInterval = o.policy.MaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(o.policy.MaxAttempts-1)), ctx)

	var raster ports.Raster
	op := func() error {
		r, err := o.next.Open(ctx, addr)
		if err == nil {
			raster = r
			return nil
		}
		if ctx.Err() != nil || !errors.Is(err, domain.ErrTileUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.TileFetchRetries.Inc()
		slog.Warn("tile open failed, retrying", "tile", addr.String(), "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return raster, nil
}
