package tilesource

import (
	"context"
	"log/slog"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// CachedFetcher keeps encoded tile bytes in a shared cache so repeated
// profiles over the same area skip the network.
type CachedFetcher struct {
	next  Fetcher
	cache ports.CacheService
	ttl   int
}

// NewCachedFetcher wraps next. ttlSeconds <= 0 defaults to one day.
func NewCachedFetcher(next Fetcher, cache ports.CacheService, ttlSeconds int) *CachedFetcher {
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	return &CachedFetcher{next: next, cache: cache, ttl: ttlSeconds}
}

func (f *CachedFetcher) Source() string { return f.next.Source() }

// Fetch implements Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, addr domain.TileAddress) ([]byte, error) {
	key := "tiles:" + f.next.Source() + ":" + addr.String()
	if data, err := f.cache.Get(ctx, key); err == nil && len(data) > 0 {
		metrics.CacheHits.WithLabelValues("tile").Inc()
		return data, nil
	}
	metrics.CacheMisses.WithLabelValues("tile").Inc()

	data, err := f.next.Fetch(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		slog.Debug("tile cache set failed", "tile", addr.String(), "error", err)
	}
	return data, nil
}
