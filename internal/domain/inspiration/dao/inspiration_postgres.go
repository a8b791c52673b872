package dao

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/linkbrand/internal/domain/inspiration/entity"
)

// Filter narrows the library listing
type Filter struct {
	Category string
	Limit    int
}

// InspirationRepository defines read access to the curated library
type InspirationRepository interface {
	List(ctx context.Context, filter Filter) ([]entity.Post, error)
}

// InspirationPostgres reads the viral_posts table
type InspirationPostgres struct {
	pool *pgxpool.Pool
}

// NewInspirationPostgres creates a new PostgreSQL inspiration repository
func NewInspirationPostgres(pool *pgxpool.Pool) *InspirationPostgres {
	return &InspirationPostgres{pool: pool}
}

// List returns posts ordered by engagement score, highest first
func (r *InspirationPostgres) List(ctx context.Context, filter Filter) ([]entity.Post, error) {
	b := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(
			"id", "title", "content",
			"COALESCE(original_content, '')", "COALESCE(linkedin_url, '')",
			"engagement_score", "COALESCE(tags, '{}')", "category",
			"COALESCE(industry, '')", "COALESCE(post_date, '')", "COALESCE(screenshot_url, '')",
			"featured", "COALESCE(added_by, '')", "COALESCE(author_name, '')", "COALESCE(author_headline, '')",
		).
		From("viral_posts").
		OrderBy("engagement_score DESC")

	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	limit := filter.Limit
	if limit <= 0 || limit > entity.DefaultLimit {
		limit = entity.DefaultLimit
	}
	b = b.Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying viral posts: %w", err)
	}
	defer rows.Close()

	posts := []entity.Post{}
	for rows.Next() {
		var p entity.Post
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Content,
			&p.OriginalContent,
			&p.LinkedInURL,
			&p.EngagementScore,
			&p.Tags,
			&p.Category,
			&p.Industry,
			&p.PostDate,
			&p.ScreenshotURL,
			&p.Featured,
			&p.AddedBy,
			&p.AuthorName,
			&p.AuthorHeadline,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating viral posts: %w", err)
	}

	return posts, nil
}
