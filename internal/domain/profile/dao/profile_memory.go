package dao

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vadim/linkbrand/internal/domain/profile/entity"
)

// ProfileMemory implements ProfileRepository in process memory
type ProfileMemory struct {
	mu       sync.RWMutex
	profiles map[string]entity.Profile
}

// NewProfileMemory creates an empty in-memory profile repository
func NewProfileMemory() *ProfileMemory {
	return &ProfileMemory{profiles: make(map[string]entity.Profile)}
}

// Create inserts a profile unless one exists
func (r *ProfileMemory) Create(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.ID]; ok {
		return nil
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.profiles[p.ID] = *p
	return nil
}

// GetByID retrieves a copy of a profile, nil if absent
func (r *ProfileMemory) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// UpdateProfileData overwrites the display data
func (r *ProfileMemory) UpdateProfileData(_ context.Context, id string, data entity.ProfileData) error {
	return r.update(id, func(p *entity.Profile) {
		p.ProfileData = data
	})
}

// UpdateKeys overwrites both integration keys
func (r *ProfileMemory) UpdateKeys(_ context.Context, id, ayrshareKey, deepSeekKey string) error {
	return r.update(id, func(p *entity.Profile) {
		p.AyrshareKey = ayrshareKey
		p.DeepSeekKey = deepSeekKey
	})
}

// ListWithAyrshareKey returns ids of profiles with an aggregator key
func (r *ProfileMemory) ListWithAyrshareKey(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []string{}
	for id, p := range r.profiles {
		if strings.TrimSpace(p.AyrshareKey) != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *ProfileMemory) update(id string, fn func(*entity.Profile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	r.profiles[id] = p
	return nil
}
