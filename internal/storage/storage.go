// internal/storage/storage.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photopipe/internal/models"
)

// Storage is the Postgres-backed photo metadata store.
type Storage struct {
	pool *pgxpool.Pool
}

// NewStorage connects to Postgres and applies pending migrations.
func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.NewStorage"

	if err := MigratePostgres(dsn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	const op = "storage.CreatePhoto"

	err := s.pool.QueryRow(ctx,
		`INSERT INTO photos (id, storage_path, uploaded_by, caption)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		 RETURNING created_at, updated_at`,
		photo.ID, photo.StoragePath, photo.UploadedBy, photo.Caption,
	).Scan(&photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	const op = "storage.GetPhoto"

	var (
		photo    models.Photo
		variants []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, storage_path, COALESCE(uploaded_by, ''), COALESCE(caption, ''),
		 variants, COALESCE(blurhash, ''), created_at, updated_at
		 FROM photos WHERE id = $1`,
		id).Scan(&photo.ID, &photo.StoragePath, &photo.UploadedBy, &photo.Caption,
		&variants, &photo.Placeholder, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: photo %s: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if photo.Variants, err = decodeVariants(variants); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &photo, nil
}

// UpdateDerivatives merges upd into the photo row. Existing variant keys not
// named in upd are kept; an empty placeholder leaves the stored one alone.
func (s *Storage) UpdateDerivatives(ctx context.Context, photoID string, upd models.PhotoUpdate) error {
	const op = "storage.UpdateDerivatives"

	variants, err := encodeVariants(upd.Variants)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE photos SET
		 variants = CASE WHEN $2::jsonb IS NULL THEN variants
		            ELSE COALESCE(variants, '{}'::jsonb) || $2::jsonb END,
		 blurhash = COALESCE(NULLIF($3, ''), blurhash),
		 updated_at = now()
		 WHERE id = $1`,
		photoID, variants, upd.Placeholder)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: photo %s: %w", op, photoID, models.ErrNotFound)
	}
	return nil
}

// encodeVariants returns nil for an empty mapping so the column is untouched.
func encodeVariants(v map[string]string) (*string, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func decodeVariants(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v map[string]string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return v, nil
}
