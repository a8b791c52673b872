package dao

import (
	"context"
	"time"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

// PostFilter contains filters for listing a user's posts
type PostFilter struct {
	UserID string
	Status *entity.Status
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Upsert inserts a post or overwrites the editable fields of an existing one.
	// created_at and metrics of an existing row are kept.
	Upsert(ctx context.Context, post *entity.Post) error

	// GetByID retrieves a post by its ID, nil if absent
	GetByID(ctx context.Context, id string) (*entity.Post, error)

	// ListByUser retrieves a user's posts, newest first
	ListByUser(ctx context.Context, filter PostFilter) ([]entity.Post, error)

	// Delete removes a post by ID
	Delete(ctx context.Context, id string) error

	// UpdateStatus sets the status; error_log is kept only for the failed status
	UpdateStatus(ctx context.Context, id string, status entity.Status, errorLog string) error

	// SetPublished marks a post as published with its external identifiers
	SetPublished(ctx context.Context, id, linkedInPostID, ayrshareID string, at time.Time) error

	// SetTrackingID attaches the aggregator tracking id to a scheduled post
	SetTrackingID(ctx context.Context, id, ayrshareID string) error

	// UpdateMetrics overwrites the stored engagement counters
	UpdateMetrics(ctx context.Context, id string, metrics entity.Metrics) error

	// ListSyncCandidates returns the user's published posts that carry an external id
	ListSyncCandidates(ctx context.Context, userID string) ([]entity.Post, error)

	// ListStuck returns posts left in flight since before the given instant:
	// publishing rows, and scheduled rows that never received a tracking id.
	ListStuck(ctx context.Context, before time.Time) ([]entity.Post, error)
}
