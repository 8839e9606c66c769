package blobstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photopipe/internal/models"
)

func TestLocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := store.Upload(ctx, "photos", "abc/beach_thumb.webp", []byte("v1"), "image/webp"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Upload(ctx, "photos", "abc/beach_thumb.webp", []byte("v2"), "image/webp"); err != nil {
		t.Fatalf("Upload overwrite: %v", err)
	}
	got, err := store.Download(ctx, "photos", "abc/beach_thumb.webp")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("expected overwritten content, got %q", got)
	}

	entries, err := os.ReadDir(filepath.Join(root, "photos", "abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one object on disk, got %d", len(entries))
	}
}

func TestLocalDownloadMissing(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.Download(context.Background(), "photos", "nope.jpg")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Upload(ctx, "photos", "../../etc/passwd", []byte("x"), "text/plain"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := store.Download(ctx, "..", "x.jpg"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
