package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vadim/linkbrand/internal/domain/inspiration/dao"
	"github.com/vadim/linkbrand/internal/domain/inspiration/entity"
)

// Service serves the inspiration library
type Service struct {
	repo   dao.InspirationRepository
	logger *slog.Logger
}

// New creates a new inspiration service. repo may be nil, in which case only samples are served.
func New(repo dao.InspirationRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the top library posts. It never fails: an unreachable or empty
// library falls back to the built-in samples.
func (s *Service) List(ctx context.Context, category string) []entity.Post {
	category = strings.TrimSpace(category)

	if s.repo != nil {
		posts, err := s.repo.List(ctx, dao.Filter{Category: category, Limit: entity.DefaultLimit})
		if err != nil {
			s.logger.Warn("inspiration library unavailable, serving samples", "error", err)
		} else if len(posts) > 0 {
			for i := range posts {
				if posts[i].Tags == nil {
					posts[i].Tags = []string{}
				}
			}
			return posts
		}
	}

	return samples(category)
}

func samples(category string) []entity.Post {
	all := entity.Samples()
	if category == "" {
		return all
	}

	out := []entity.Post{}
	for _, p := range all {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}
