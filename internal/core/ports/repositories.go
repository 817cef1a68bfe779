package ports

import (
	"context"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// ProfileRepository persists computed profiles.
type ProfileRepository interface {
	Save(ctx context.Context, profile *domain.Profile) error
	// GetByID returns domain.ErrNotFound when no profile has the id.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// List returns one page of summaries, newest first, plus the total count.
	List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, int, error)
}
