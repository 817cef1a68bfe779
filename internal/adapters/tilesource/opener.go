package tilesource

import (
	"context"
	"time"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// Opener fetches and decodes terrarium tiles. It implements ports.TileOpener.
type Opener struct {
	fetcher Fetcher
}

// NewOpener creates an Opener over fetcher.
func NewOpener(fetcher Fetcher) *Opener {
	return &Opener{fetcher: fetcher}
}

// Open implements ports.TileOpener. Every failure is a *domain.TileError.
func (o *Opener) Open(ctx context.Context, addr domain.TileAddress) (ports.Raster, error) {
	start := time.Now()
	defer func() {
		metrics.TileOpenDuration.WithLabelValues(o.fetcher.Source()).Observe(time.Since(start).Seconds())
	}()

	data, err := o.fetcher.Fetch(ctx, addr)
	if err != nil {
		return nil, &domain.TileError{Address: addr, Err: err}
	}
	r, err := DecodeTerrarium(addr, data)
	if err != nil {
		return nil, &domain.TileError{Address: addr, Err: err}
	}
	return r, nil
}
