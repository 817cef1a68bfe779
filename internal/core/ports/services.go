package ports

import (
	"context"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// TileOpener opens the raster resource serving one tile address.
// Failures unwrap to domain.ErrTileUnavailable and are safe to retry.
type TileOpener interface {
	Open(ctx context.Context, addr domain.TileAddress) (Raster, error)
}

// Raster is an opened tile resource. A Raster is owned by a single run
// and must be closed by it.
type Raster interface {
	// RowCol maps a raster-native coordinate to pixel row/column through
	// the raster's affine transform.
	RowCol(p domain.PlanarPoint) (row, col int)
	// ElevationAt reads one pixel; it returns a *domain.SampleError when
	// row/col lie outside the raster extent.
	ElevationAt(row, col int) (float64, error)
	Close() error
}

// EventPublisher publishes profile events to a message broker.
type EventPublisher interface {
	PublishProfileComputed(ctx context.Context, summary domain.ProfileSummary) error
	PublishProfileRequested(ctx context.Context, job domain.ProfileJob) error
}

// EventSubscriber consumes profile events from a message broker.
type EventSubscriber interface {
	SubscribeProfileRequests(ctx context.Context, handler func(ctx context.Context, job domain.ProfileJob) error) error
}

// CacheService provides read-through caching.
// Get returns domain.ErrNotFound on a miss.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
