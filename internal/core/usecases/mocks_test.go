package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/tiles"
)

// --- Fake TileOpener / Raster ---

type fakeOpener struct {
	openFn func(addr domain.TileAddress) error
	elevFn func(addr domain.TileAddress, row, col int) (float64, error)
	delay  func(addr domain.TileAddress) time.Duration

	mu     sync.Mutex
	calls  int
	opened int
	closed int
}

func (o *fakeOpener) Open(ctx context.Context, addr domain.TileAddress) (ports.Raster, error) {
	if o.delay != nil {
		select {
		case <-time.After(o.delay(addr)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()

	if o.openFn != nil {
		if err := o.openFn(addr); err != nil {
			return nil, err
		}
	}

	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
	return &fakeRaster{addr: addr, opener: o, gt: tiles.TileTransform(addr, tiles.Size, tiles.Size)}, nil
}

func (o *fakeOpener) counts() (calls, opened, closed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls, o.opened, o.closed
}

type fakeRaster struct {
	addr   domain.TileAddress
	opener *fakeOpener
	gt     tiles.GeoTransform
}

func (r *fakeRaster) RowCol(p domain.PlanarPoint) (int, int) { return r.gt.Index(p) }

func (r *fakeRaster) ElevationAt(row, col int) (float64, error) {
	if r.opener.elevFn != nil {
		return r.opener.elevFn(r.addr, row, col)
	}
	if row < 0 || row >= tiles.Size || col < 0 || col >= tiles.Size {
		return 0, &domain.SampleError{Address: r.addr, Row: row, Col: col}
	}
	return 1000.7 + float64(r.addr.X%10), nil
}

func (r *fakeRaster) Close() error {
	r.opener.mu.Lock()
	r.opener.closed++
	r.opener.mu.Unlock()
	return nil
}

// --- Mock ProfileRepository ---

type mockProfileRepo struct {
	saveFn    func(ctx context.Context, p *domain.Profile) error
	getByIDFn func(ctx context.Context, id string) (*domain.Profile, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, int, error)
}

func (m *mockProfileRepo) Save(ctx context.Context, p *domain.Profile) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProfileRepo) List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	computed  []domain.ProfileSummary
	requested []domain.ProfileJob
}

func (p *mockPublisher) PublishProfileComputed(ctx context.Context, s domain.ProfileSummary) error {
	p.computed = append(p.computed, s)
	return nil
}

func (p *mockPublisher) PublishProfileRequested(ctx context.Context, job domain.ProfileJob) error {
	p.requested = append(p.requested, job)
	return nil
}
