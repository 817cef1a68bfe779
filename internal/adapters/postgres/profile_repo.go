package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// ProfileRepo implements ports.ProfileRepository. The full profile is kept
// as JSONB; listing columns are denormalised next to it.
type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Save(ctx context.Context, p *domain.Profile) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	s := p.Summary()
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO profiles (id, created_at, step, zoom, length_m, points, missing,
		                      min_lon, min_lat, max_lon, max_lat, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, missing = EXCLUDED.missing
	`, s.ID, s.CreatedAt, s.Step, s.Zoom, s.Length, s.Points, s.Missing,
		s.Bounds[0], s.Bounds[1], s.Bounds[2], s.Bounds[3], body)
	return err
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var body []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT body FROM profiles WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p domain.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", id, err)
	}
	return &p, nil
}

func (r *ProfileRepo) List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, created_at, step, zoom, length_m, points, missing,
		       min_lon, min_lat, max_lon, max_lat
		FROM profiles
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	summaries := []domain.ProfileSummary{}
	for rows.Next() {
		var s domain.ProfileSummary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Step, &s.Zoom, &s.Length, &s.Points, &s.Missing,
			&s.Bounds[0], &s.Bounds[1], &s.Bounds[2], &s.Bounds[3]); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}
