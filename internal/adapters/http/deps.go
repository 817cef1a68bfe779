package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

// Pinger is a backing service that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Profiles *usecases.ProfileService
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	// BuildTimeout bounds synchronous profile builds. Zero means 60s.
	BuildTimeout time.Duration
}

func (d *Dependencies) buildTimeout() time.Duration {
	if d.BuildTimeout <= 0 {
		return 60 * time.Second
	}
	return d.BuildTimeout
}
