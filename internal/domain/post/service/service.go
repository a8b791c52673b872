package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vadim/linkbrand/internal/domain/post/dao"
	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

// Service handles draft persistence and plain CRUD over posts
type Service struct {
	posts dao.PostRepository
}

// New creates a new post service
func New(posts dao.PostRepository) *Service {
	return &Service{posts: posts}
}

// DraftInput represents the editable fields of a draft save
type DraftInput struct {
	ID        string // optional, minted when empty
	UserID    string
	Title     string
	Content   string
	Variants  []entity.Variant // nil keeps the stored variants
	MediaURLs []string         // nil keeps the stored media
	Hashtags  []string         // nil keeps the stored hashtags
}

// SaveDraft upserts a post in draft status.
// Rows handed to the aggregator are not overwritten.
func (s *Service) SaveDraft(ctx context.Context, in DraftInput) (*entity.Post, error) {
	if in.UserID == "" {
		return nil, entity.ErrEmptyUserID
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, entity.ErrEmptyContent
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrInvalidIdempotencyKey
	}

	existing, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}

	post := &entity.Post{ID: id, UserID: in.UserID}
	if existing != nil {
		if existing.UserID != in.UserID {
			return nil, entity.ErrPostNotOwned
		}
		if !existing.IsDraftEditable() {
			return nil, entity.ErrPostNotEditable
		}
		post = existing
	}

	post.Title = in.Title
	if strings.TrimSpace(post.Title) == "" {
		post.Title = entity.DefaultDraftTitle
	}
	post.Content = in.Content
	post.Status = entity.StatusDraft
	if in.Variants != nil {
		post.GeneratedVariants = in.Variants
	}
	if in.MediaURLs != nil {
		post.MediaURLs = in.MediaURLs
	}
	if in.Hashtags != nil {
		post.Hashtags = in.Hashtags
	}

	if err := s.posts.Upsert(ctx, post); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	return post, nil
}

// GetPost retrieves a post owned by the user
func (s *Service) GetPost(ctx context.Context, userID, id string) (*entity.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, entity.ErrPostNotOwned
	}

	return post, nil
}

// ListInput represents input for listing posts
type ListInput struct {
	UserID string
	Status *entity.Status
	Limit  int
	Offset int
}

// ListPosts retrieves the user's posts, newest created first
func (s *Service) ListPosts(ctx context.Context, in ListInput) ([]entity.Post, error) {
	if in.UserID == "" {
		return nil, entity.ErrEmptyUserID
	}
	if in.Limit <= 0 || in.Limit > 200 {
		in.Limit = 100
	}

	posts, err := s.posts.ListByUser(ctx, dao.PostFilter{
		UserID: in.UserID,
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	return posts, nil
}

// UpdateInput represents a partial edit of a post
type UpdateInput struct {
	UserID  string
	ID      string
	Title   *string
	Content *string
	Status  *entity.Status
}

// UpdatePost edits title, content or status.
// Publishing, published and scheduled states are entered and left through the workflow only.
func (s *Service) UpdatePost(ctx context.Context, in UpdateInput) (*entity.Post, error) {
	post, err := s.GetPost(ctx, in.UserID, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Status != nil {
		st, err := entity.ParseStatus(string(*in.Status))
		if err != nil {
			return nil, err
		}
		if st != post.Status {
			if workflowOwned(st) {
				return nil, fmt.Errorf("%w: %s is set by publishing only", entity.ErrInvalidStatus, st)
			}
			if workflowOwned(post.Status) {
				return nil, fmt.Errorf("%w: post is %s", entity.ErrPostNotEditable, post.Status)
			}
		}
		post.Status = st
	}

	if err := s.posts.Upsert(ctx, post); err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	return post, nil
}

func workflowOwned(st entity.Status) bool {
	return st == entity.StatusPublishing || st == entity.StatusPublished || st == entity.StatusScheduled
}
