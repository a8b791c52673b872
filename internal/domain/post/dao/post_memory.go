package dao

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

// PostMemory implements PostRepository in process memory.
// It backs local runs without DATABASE_URL and the domain tests.
type PostMemory struct {
	mu    sync.RWMutex
	posts map[string]entity.Post
	now   func() time.Time
}

// NewPostMemory creates an empty in-memory post repository
func NewPostMemory() *PostMemory {
	return &PostMemory{
		posts: make(map[string]entity.Post),
		now:   time.Now,
	}
}

// Upsert inserts a post or overwrites its editable fields
func (r *PostMemory) Upsert(_ context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post.Normalize()
	now := r.now()
	row := clonePost(*post)

	if existing, ok := r.posts[post.ID]; ok {
		if existing.UserID != post.UserID {
			return entity.ErrPostNotOwned
		}
		row.CreatedAt = existing.CreatedAt
		row.Metrics = existing.Metrics
		row.PublishedTime = existing.PublishedTime
		row.LinkedInPostID = existing.LinkedInPostID
		row.AyrshareID = existing.AyrshareID
	} else if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	r.posts[post.ID] = row
	post.CreatedAt = row.CreatedAt
	post.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID retrieves a copy of a post, nil if absent
func (r *PostMemory) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	out := clonePost(post)
	return &out, nil
}

// ListByUser retrieves a user's posts, newest created first
func (r *PostMemory) ListByUser(_ context.Context, filter PostFilter) ([]entity.Post, error) {
	out := r.filter(func(p entity.Post) bool {
		return p.UserID == filter.UserID && (filter.Status == nil || p.Status == *filter.Status)
	})
	slices.SortFunc(out, func(a, b entity.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []entity.Post{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete removes a post
func (r *PostMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return entity.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

// UpdateStatus sets the status; error_log survives only for the failed status
func (r *PostMemory) UpdateStatus(_ context.Context, id string, status entity.Status, errorLog string) error {
	return r.update(id, func(p *entity.Post) {
		p.Status = status
		p.ErrorLog = errorLog
	})
}

// SetPublished marks a post as published
func (r *PostMemory) SetPublished(_ context.Context, id, linkedInPostID, ayrshareID string, at time.Time) error {
	return r.update(id, func(p *entity.Post) {
		p.Status = entity.StatusPublished
		p.LinkedInPostID = linkedInPostID
		p.AyrshareID = ayrshareID
		p.PublishedTime = &at
	})
}

// SetTrackingID attaches the aggregator tracking id
func (r *PostMemory) SetTrackingID(_ context.Context, id, ayrshareID string) error {
	return r.update(id, func(p *entity.Post) {
		p.AyrshareID = ayrshareID
		p.ErrorLog = ""
	})
}

// UpdateMetrics overwrites the engagement counters
func (r *PostMemory) UpdateMetrics(_ context.Context, id string, metrics entity.Metrics) error {
	return r.update(id, func(p *entity.Post) {
		p.Metrics = metrics
	})
}

// ListSyncCandidates returns the user's published posts with an external id
func (r *PostMemory) ListSyncCandidates(_ context.Context, userID string) ([]entity.Post, error) {
	return r.filter(func(p entity.Post) bool {
		return p.UserID == userID && p.CanSyncAnalytics()
	}), nil
}

// ListStuck returns in-flight rows last touched before the given instant
func (r *PostMemory) ListStuck(_ context.Context, before time.Time) ([]entity.Post, error) {
	return r.filter(func(p entity.Post) bool {
		inFlight := p.Status == entity.StatusPublishing ||
			(p.Status == entity.StatusScheduled && p.AyrshareID == "")
		return inFlight && p.UpdatedAt.Before(before)
	}), nil
}

func (r *PostMemory) update(id string, fn func(*entity.Post)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return entity.ErrPostNotFound
	}
	fn(&post)
	post.Normalize()
	post.UpdatedAt = r.now()
	r.posts[id] = post
	return nil
}

func (r *PostMemory) filter(keep func(entity.Post) bool) []entity.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entity.Post{}
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func clonePost(p entity.Post) entity.Post {
	p.GeneratedVariants = slices.Clone(p.GeneratedVariants)
	p.MediaURLs = slices.Clone(p.MediaURLs)
	p.Hashtags = slices.Clone(p.Hashtags)
	return p
}
