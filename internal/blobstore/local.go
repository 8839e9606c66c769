// Package blobstore provides the object stores originals and derivatives are
// read from and written to.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"photopipe/internal/models"
)

// Local keeps objects on disk under root/<bucket>/<path>.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	const op = "blobstore.NewLocal"

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) objectPath(bucket, path string) (string, error) {
	rel := filepath.Join(bucket, filepath.FromSlash(path))
	if !filepath.IsLocal(bucket) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: object %s/%s escapes the storage root", models.ErrValidation, bucket, path)
	}
	return filepath.Join(l.root, rel), nil
}

func (l *Local) Download(_ context.Context, bucket, path string) ([]byte, error) {
	const op = "blobstore.Local.Download"

	p, err := l.objectPath(bucket, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

// Upload writes through a temp file and rename so readers never see a
// partially written object. Existing objects are replaced.
func (l *Local) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	const op = "blobstore.Local.Upload"

	p, err := l.objectPath(bucket, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
