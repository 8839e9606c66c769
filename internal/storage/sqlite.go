package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"photopipe/internal/models"
)

// SQLite is a single-file photo metadata store for local runs and tests.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	const op = "storage.NewSQLite"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: enable WAL mode: %w", op, err)
	}
	// Serialize writers; concurrent pipeline runs otherwise hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := runMigrations(db, "sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	const op = "storage.SQLite.CreatePhoto"

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (id, storage_path, uploaded_by, caption, created_at, updated_at)
		 VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
		photo.ID, photo.StoragePath, photo.UploadedBy, photo.Caption, now, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	photo.CreatedAt = now
	photo.UpdatedAt = now
	return nil
}

func (s *SQLite) GetPhoto(ctx context.Context, id string) (*models.Photo, error) {
	const op = "storage.SQLite.GetPhoto"

	var (
		photo    models.Photo
		variants sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, storage_path, COALESCE(uploaded_by, ''), COALESCE(caption, ''),
		 variants, COALESCE(blurhash, ''), created_at, updated_at
		 FROM photos WHERE id = ?`, id,
	).Scan(&photo.ID, &photo.StoragePath, &photo.UploadedBy, &photo.Caption,
		&variants, &photo.Placeholder, &photo.CreatedAt, &photo.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: photo %s: %w", op, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if photo.Variants, err = decodeVariants([]byte(variants.String)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &photo, nil
}

// UpdateDerivatives merges upd into the photo row using json_patch, so keys
// already recorded by an earlier run survive.
func (s *SQLite) UpdateDerivatives(ctx context.Context, photoID string, upd models.PhotoUpdate) error {
	const op = "storage.SQLite.UpdateDerivatives"

	variants, err := encodeVariants(upd.Variants)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE photos SET
		 variants = CASE WHEN ?2 IS NULL THEN variants
		            ELSE json_patch(COALESCE(variants, '{}'), ?2) END,
		 blurhash = COALESCE(NULLIF(?3, ''), blurhash),
		 updated_at = ?4
		 WHERE id = ?1`,
		photoID, variants, upd.Placeholder, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: photo %s: %w", op, photoID, models.ErrNotFound)
	}
	return nil
}
