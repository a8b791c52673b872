package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/linkbrand/internal/domain/profile/entity"
)

// ProfilePostgres implements ProfileRepository for PostgreSQL
type ProfilePostgres struct {
	pool   *pgxpool.Pool
	sealer Sealer
}

// NewProfilePostgres creates a new PostgreSQL profile repository
func NewProfilePostgres(pool *pgxpool.Pool, sealer Sealer) *ProfilePostgres {
	return &ProfilePostgres{pool: pool, sealer: sealer}
}

// Create inserts a new profile
func (r *ProfilePostgres) Create(ctx context.Context, p *entity.Profile) error {
	data, err := json.Marshal(p.ProfileData)
	if err != nil {
		return fmt.Errorf("encoding profile data: %w", err)
	}
	ayrshare, deepSeek, err := r.sealKeys(p.AyrshareKey, p.DeepSeekKey)
	if err != nil {
		return err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO profiles (id, email, plan, credits, profile_data, ayrshare_key_sealed, deepseek_key_sealed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID, p.Email, string(p.Plan), p.Credits, data, ayrshare, deepSeek, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfilePostgres) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	query := `
		SELECT id::text, email, plan, credits, profile_data, ayrshare_key_sealed, deepseek_key_sealed, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var (
		p                  entity.Profile
		plan               string
		data               []byte
		ayrshare, deepSeek *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Email,
		&plan,
		&p.Credits,
		&data,
		&ayrshare,
		&deepSeek,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p.Plan = entity.Plan(plan)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.ProfileData); err != nil {
			return nil, fmt.Errorf("decoding profile data: %w", err)
		}
	}
	if p.AyrshareKey, err = r.open(ayrshare); err != nil {
		return nil, fmt.Errorf("opening ayrshare key: %w", err)
	}
	if p.DeepSeekKey, err = r.open(deepSeek); err != nil {
		return nil, fmt.Errorf("opening deepseek key: %w", err)
	}

	return &p, nil
}

// UpdateProfileData overwrites the display data
func (r *ProfilePostgres) UpdateProfileData(ctx context.Context, id string, data entity.ProfileData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding profile data: %w", err)
	}

	query := `UPDATE profiles SET profile_data = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, raw, time.Now())
	if err != nil {
		return fmt.Errorf("updating profile data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}

	return nil
}

// UpdateKeys overwrites the sealed integration keys
func (r *ProfilePostgres) UpdateKeys(ctx context.Context, id, ayrshareKey, deepSeekKey string) error {
	ayrshare, deepSeek, err := r.sealKeys(ayrshareKey, deepSeekKey)
	if err != nil {
		return err
	}

	query := `
		UPDATE profiles
		SET ayrshare_key_sealed = $2, deepseek_key_sealed = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, ayrshare, deepSeek, time.Now())
	if err != nil {
		return fmt.Errorf("updating keys: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}

	return nil
}

// ListWithAyrshareKey returns ids of profiles with an aggregator key
func (r *ProfilePostgres) ListWithAyrshareKey(ctx context.Context) ([]string, error) {
	query := `
		SELECT id::text
		FROM profiles
		WHERE ayrshare_key_sealed IS NOT NULL AND ayrshare_key_sealed <> ''
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning profiles: %w", err)
	}

	return ids, nil
}

func (r *ProfilePostgres) sealKeys(ayrshareKey, deepSeekKey string) (*string, *string, error) {
	ayrshare, err := r.sealer.Seal(ayrshareKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sealing ayrshare key: %w", err)
	}
	deepSeek, err := r.sealer.Seal(deepSeekKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sealing deepseek key: %w", err)
	}
	return nullable(ayrshare), nullable(deepSeek), nil
}

func (r *ProfilePostgres) open(sealed *string) (string, error) {
	if sealed == nil {
		return "", nil
	}
	return r.sealer.Open(*sealed)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
