// Package tilesource opens terrarium-encoded elevation tiles from HTTP or
// Google Cloud Storage.
package tilesource

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
)

// ErrMissingTile is returned when the source has no object for an address.
var ErrMissingTile = errors.New("tile does not exist")

// Fetcher returns the encoded bytes of one tile.
type Fetcher interface {
	Fetch(ctx context.Context, addr domain.TileAddress) ([]byte, error)
	// Source names the backend for logs and metrics.
	Source() string
}

// FromConfig builds the fetcher selected by cfg, wrapped with the byte cache
// when enabled. The returned func releases backend clients.
func FromConfig(ctx context.Context, cfg config.TilesConfig, cache ports.CacheService) (Fetcher, func() error, error) {
	var (
		f       Fetcher
		closeFn = func() error { return nil }
	)

	switch cfg.Source {
	case "http":
		f = NewHTTPFetcher(cfg.URLTemplate, HTTPOptions{
			TimeoutSeconds: cfg.TimeoutSeconds,
			RateLimit:      cfg.RateLimit,
			Burst:          cfg.Burst,
		})
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS storage client: %w", err)
		}
		f = NewGCSFetcher(client, cfg.Bucket, cfg.ObjectTemplate)
		closeFn = client.Close
	default:
		return nil, nil, fmt.Errorf("unknown tile source %q", cfg.Source)
	}

	if cfg.CacheEnabled && cache != nil {
		f = NewCachedFetcher(f, cache, cfg.CacheTTL)
	}
	return f, closeFn, nil
}
