package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadim/linkbrand/internal/domain/profile/dao"
	"github.com/vadim/linkbrand/internal/domain/profile/entity"
)

// Service handles business logic for user profiles
type Service struct {
	profiles dao.ProfileRepository
}

// New creates a new profile service
func New(profiles dao.ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

// Get returns the user's profile, creating the default one on first access
func (s *Service) Get(ctx context.Context, userID, email string) (*entity.Profile, error) {
	if userID == "" {
		return nil, entity.ErrEmptyUserID
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if p != nil {
		return p, nil
	}

	if err := s.profiles.Create(ctx, entity.NewDefault(userID, email)); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	// Re-read: a concurrent first request may have won the insert
	p, err = s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s missing after create", userID)
	}

	return p, nil
}

// ProfileDataInput represents a partial edit of the display data
type ProfileDataInput struct {
	Name        *string
	Headline    *string
	Connections *int
}

// UpdateProfileData edits name, headline or connection count
func (s *Service) UpdateProfileData(ctx context.Context, userID, email string, in ProfileDataInput) (*entity.Profile, error) {
	p, err := s.Get(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	data := p.ProfileData
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, entity.ErrEmptyName
		}
		data.Name = name
	}
	if in.Headline != nil {
		data.Headline = strings.TrimSpace(*in.Headline)
	}
	if in.Connections != nil && *in.Connections >= 0 {
		data.Connections = *in.Connections
	}

	if err := s.profiles.UpdateProfileData(ctx, userID, data); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	p.ProfileData = data
	return p, nil
}

// KeysInput carries integration keys; nil keeps the stored value, empty clears it
type KeysInput struct {
	AyrshareKey *string
	DeepSeekKey *string
}

// UpdateKeys stores the user's integration keys
func (s *Service) UpdateKeys(ctx context.Context, userID, email string, in KeysInput) (*entity.Profile, error) {
	p, err := s.Get(ctx, userID, email)
	if err != nil {
		return nil, err
	}

	if in.AyrshareKey != nil {
		p.AyrshareKey = strings.TrimSpace(*in.AyrshareKey)
	}
	if in.DeepSeekKey != nil {
		p.DeepSeekKey = strings.TrimSpace(*in.DeepSeekKey)
	}

	if err := s.profiles.UpdateKeys(ctx, userID, p.AyrshareKey, p.DeepSeekKey); err != nil {
		return nil, fmt.Errorf("saving keys: %w", err)
	}

	return p, nil
}

// AyrshareKey returns the user's aggregator key, empty when none is stored
func (s *Service) AyrshareKey(ctx context.Context, userID string) (string, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return "", nil
	}
	return strings.TrimSpace(p.AyrshareKey), nil
}

// DeepSeekKey returns the user's alternate generation key, empty when none is stored
func (s *Service) DeepSeekKey(ctx context.Context, userID string) (string, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return "", nil
	}
	return strings.TrimSpace(p.DeepSeekKey), nil
}

// ListUsersWithAyrshareKey returns the users analytics can be synced for
func (s *Service) ListUsersWithAyrshareKey(ctx context.Context) ([]string, error) {
	return s.profiles.ListWithAyrshareKey(ctx)
}
