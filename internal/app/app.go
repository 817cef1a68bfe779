// Package app wires adapters and use cases into the services the commands run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/elevprofile/internal/adapters/tilesource"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
)

// NewProfileService wires the tile source, retries and sampler selected by
// cfg into a ProfileService. profiles, cache and events may be nil. The
// returned func releases the tile backend.
func NewProfileService(
	ctx context.Context,
	cfg *config.Config,
	profiles ports.ProfileRepository,
	cache ports.CacheService,
	events ports.EventPublisher,
) (*usecases.ProfileService, func() error, error) {
	transformer, err := geospatial.NewTransformer(cfg.Profile.SourceCRS, cfg.Profile.PlanarCRS)
	if err != nil {
		return nil, nil, fmt.Errorf("transformer: %w", err)
	}

	fetcher, closeFn, err := tilesource.FromConfig(ctx, cfg.Tiles, cache)
	if err != nil {
		return nil, nil, err
	}

	opener := usecases.NewRetryingOpener(tilesource.NewOpener(fetcher), usecases.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: time.Duration(cfg.Retry.InitialIntervalMS) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.Retry.MaxIntervalMS) * time.Millisecond,
	})
	sampler := usecases.NewSampler(opener, cfg.Profile.Workers, cfg.Profile.FailFast)

	svc := usecases.NewProfileService(transformer, sampler, profiles, cache, events, usecases.Settings{
		Step: cfg.Profile.Step,
		Zoom: cfg.Profile.Zoom,
	})
	return svc, closeFn, nil
}
