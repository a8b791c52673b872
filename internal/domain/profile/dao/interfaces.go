package dao

import (
	"context"

	"github.com/vadim/linkbrand/internal/domain/profile/entity"
)

// ProfileRepository defines the interface for profile data access.
// Implementations store API keys sealed and return them opened.
type ProfileRepository interface {
	// Create inserts a profile, doing nothing if one already exists
	Create(ctx context.Context, profile *entity.Profile) error

	// GetByID retrieves a profile, nil if absent
	GetByID(ctx context.Context, id string) (*entity.Profile, error)

	// UpdateProfileData overwrites the display data
	UpdateProfileData(ctx context.Context, id string, data entity.ProfileData) error

	// UpdateKeys overwrites both integration keys; an empty key clears it
	UpdateKeys(ctx context.Context, id, ayrshareKey, deepSeekKey string) error

	// ListWithAyrshareKey returns ids of profiles with an aggregator key on file
	ListWithAyrshareKey(ctx context.Context) ([]string, error)
}

// Sealer seals API keys at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}
