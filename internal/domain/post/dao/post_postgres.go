package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var postColumns = []string{
	"id::text", "user_id::text", "title", "content", "generated_variants", "status",
	"scheduled_time", "published_time", "linkedin_post_id", "ayrshare_id", "error_log",
	"platform", "media_urls", "hashtags", "metrics", "created_at", "updated_at",
}

// PostPostgres implements PostRepository for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

// Upsert inserts a new post or overwrites the editable fields of an existing one.
// A row owned by another user is left untouched and reported as ErrPostNotOwned.
func (r *PostPostgres) Upsert(ctx context.Context, post *entity.Post) error {
	post.Normalize()

	variants, err := json.Marshal(post.GeneratedVariants)
	if err != nil {
		return fmt.Errorf("encoding variants: %w", err)
	}
	metrics, err := json.Marshal(post.Metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}

	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	query, args, err := psql.Insert("posts").
		Columns(
			"id", "user_id", "title", "content", "generated_variants", "status",
			"scheduled_time", "published_time", "linkedin_post_id", "ayrshare_id", "error_log",
			"platform", "media_urls", "hashtags", "metrics", "created_at", "updated_at",
		).
		Values(
			post.ID, post.UserID, post.Title, post.Content, variants, string(post.Status),
			post.ScheduledTime, post.PublishedTime, nullable(post.LinkedInPostID), nullable(post.AyrshareID),
			nullable(post.ErrorLog), post.Platform, post.MediaURLs, post.Hashtags, metrics,
			post.CreatedAt, post.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			generated_variants = EXCLUDED.generated_variants,
			status = EXCLUDED.status,
			scheduled_time = EXCLUDED.scheduled_time,
			error_log = EXCLUDED.error_log,
			platform = EXCLUDED.platform,
			media_urls = EXCLUDED.media_urls,
			hashtags = EXCLUDED.hashtags,
			updated_at = EXCLUDED.updated_at
		WHERE posts.user_id = EXCLUDED.user_id
		RETURNING created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&post.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrPostNotOwned
	}
	if err != nil {
		return fmt.Errorf("upserting post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by ID
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	query, args, err := psql.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	post, err := scanPost(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying post: %w", err)
	}

	return post, nil
}

// ListByUser retrieves a user's posts, newest created first
func (r *PostPostgres) ListByUser(ctx context.Context, filter PostFilter) ([]entity.Post, error) {
	b := psql.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"user_id": filter.UserID}).
		OrderBy("created_at DESC")

	if filter.Status != nil {
		b = b.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	return r.query(ctx, b)
}

// Delete removes a post
func (r *PostPostgres) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}

	return nil
}

// UpdateStatus sets the status; error_log survives only for the failed status
func (r *PostPostgres) UpdateStatus(ctx context.Context, id string, status entity.Status, errorLog string) error {
	if status != entity.StatusFailed {
		errorLog = ""
	}

	return r.exec(ctx, "updating status", psql.Update("posts").
		Set("status", string(status)).
		Set("error_log", nullable(errorLog)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}))
}

// SetPublished marks a post as published
func (r *PostPostgres) SetPublished(ctx context.Context, id, linkedInPostID, ayrshareID string, at time.Time) error {
	return r.exec(ctx, "setting published", psql.Update("posts").
		Set("status", string(entity.StatusPublished)).
		Set("linkedin_post_id", nullable(linkedInPostID)).
		Set("ayrshare_id", nullable(ayrshareID)).
		Set("published_time", at).
		Set("error_log", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}))
}

// SetTrackingID attaches the aggregator tracking id
func (r *PostPostgres) SetTrackingID(ctx context.Context, id, ayrshareID string) error {
	return r.exec(ctx, "setting tracking id", psql.Update("posts").
		Set("ayrshare_id", nullable(ayrshareID)).
		Set("error_log", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}))
}

// UpdateMetrics overwrites the engagement counters
func (r *PostPostgres) UpdateMetrics(ctx context.Context, id string, metrics entity.Metrics) error {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}

	return r.exec(ctx, "updating metrics", psql.Update("posts").
		Set("metrics", raw).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}))
}

// ListSyncCandidates returns the user's published posts with an external id
func (r *PostPostgres) ListSyncCandidates(ctx context.Context, userID string) ([]entity.Post, error) {
	return r.query(ctx, psql.Select(postColumns...).
		From("posts").
		Where(sq.Eq{"user_id": userID, "status": string(entity.StatusPublished)}).
		Where(sq.Or{
			sq.NotEq{"ayrshare_id": nil},
			sq.NotEq{"linkedin_post_id": nil},
		}).
		OrderBy("published_time DESC"))
}

// ListStuck returns in-flight rows last touched before the given instant
func (r *PostPostgres) ListStuck(ctx context.Context, before time.Time) ([]entity.Post, error) {
	return r.query(ctx, psql.Select(postColumns...).
		From("posts").
		Where(sq.Lt{"updated_at": before}).
		Where(sq.Or{
			sq.Eq{"status": string(entity.StatusPublishing)},
			sq.And{
				sq.Eq{"status": string(entity.StatusScheduled)},
				sq.Eq{"ayrshare_id": nil},
			},
		}).
		OrderBy("updated_at ASC"))
}

func (r *PostPostgres) exec(ctx context.Context, op string, b sq.UpdateBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}

	return nil
}

func (r *PostPostgres) query(ctx context.Context, b sq.SelectBuilder) ([]entity.Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []entity.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}

func scanPost(row pgx.Row) (*entity.Post, error) {
	var (
		post       entity.Post
		status     string
		variants   []byte
		metrics    []byte
		linkedInID *string
		ayrshareID *string
		errLog     *string
	)

	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&variants,
		&status,
		&post.ScheduledTime,
		&post.PublishedTime,
		&linkedInID,
		&ayrshareID,
		&errLog,
		&post.Platform,
		&post.MediaURLs,
		&post.Hashtags,
		&metrics,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if post.Status, err = entity.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("post %s: %w", post.ID, err)
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &post.GeneratedVariants); err != nil {
			return nil, fmt.Errorf("decoding variants: %w", err)
		}
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &post.Metrics); err != nil {
			return nil, fmt.Errorf("decoding metrics: %w", err)
		}
	}
	post.LinkedInPostID = deref(linkedInID)
	post.AyrshareID = deref(ayrshareID)
	post.ErrorLog = deref(errLog)
	post.Normalize()

	return &post, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
