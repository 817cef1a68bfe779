package tilesource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// GCSFetcher reads tiles from a bucket, one object per address.
type GCSFetcher struct {
	client   *storage.Client
	bucket   string
	template string
}

// NewGCSFetcher creates a GCSFetcher. template maps an address to an object
// name, e.g. terrarium/{z}/{x}/{y}.png.
func NewGCSFetcher(client *storage.Client, bucket, template string) *GCSFetcher {
	return &GCSFetcher{client: client, bucket: bucket, template: template}
}

func (f *GCSFetcher) Source() string { return "gcs" }

// Fetch implements Fetcher.
func (f *GCSFetcher) Fetch(ctx context.Context, addr domain.TileAddress) ([]byte, error) {
	name := tiles.Expand(f.template, addr)
	rc, err := f.client.Bucket(f.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", f.bucket, name, ErrMissingTile)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", f.bucket, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", f.bucket, name, err)
	}
	return data, nil
}
