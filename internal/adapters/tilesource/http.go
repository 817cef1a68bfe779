package tilesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// maxTileBytes caps a single tile download.
const maxTileBytes = 8 << 20

// HTTPOptions tunes the HTTP fetcher.
type HTTPOptions struct {
	TimeoutSeconds int
	RateLimit      float64 // requests per second; 0 means unlimited
	Burst          int
}

// HTTPFetcher downloads tiles from a URL template such as
// https://host/terrarium/{z}/{x}/{y}.png.
type HTTPFetcher struct {
	client   *http.Client
	template string
	limiter  *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(template string, opts HTTPOptions) *HTTPFetcher {
	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		template: template,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (f *HTTPFetcher) Source() string { return "http" }

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, addr domain.TileAddress) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := tiles.Expand(f.template, addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", url, ErrMissingTile)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}
