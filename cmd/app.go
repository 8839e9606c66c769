package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"photopipe/internal/blobstore"
	"photopipe/internal/models"
	"photopipe/internal/pipeline"
	"photopipe/internal/storage"
)

// metadataStore is what the commands need from either metadata backend.
type metadataStore interface {
	pipeline.MetadataStore
	GetPhoto(ctx context.Context, id string) (*models.Photo, error)
	Close() error
}

func loadConfig() (*models.Config, *slog.Logger, error) {
	cfg, err := models.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openBlobStore(ctx context.Context, cfg *models.Config) (pipeline.BlobStore, error) {
	switch cfg.BlobStore.Driver {
	case models.BlobDriverLocal:
		return blobstore.NewLocal(cfg.BlobStore.LocalRoot)
	default:
		s3, err := blobstore.NewS3(cfg.BlobStore.S3)
		if err != nil {
			return nil, err
		}
		if cfg.DefaultBucket != "" {
			if err := s3.EnsureBucket(ctx, cfg.DefaultBucket); err != nil {
				return nil, err
			}
		}
		return s3, nil
	}
}

func openMetadata(ctx context.Context, cfg *models.Config) (metadataStore, error) {
	switch cfg.Metadata.Driver {
	case models.MetadataDriverSQLite:
		return storage.NewSQLite(ctx, cfg.Metadata.SQLitePath)
	default:
		return storage.NewStorage(ctx, cfg.Metadata.DatabaseURL)
	}
}

func newPipeline(cfg *models.Config, blobs pipeline.BlobStore, meta pipeline.MetadataStore, log *slog.Logger) (*pipeline.Pipeline, error) {
	return pipeline.New(blobs, meta, pipeline.Options{
		Variants:    cfg.Processing.Variants,
		Concurrency: cfg.Processing.Concurrency,
		Disabled:    !cfg.Processing.IsEnabled(),
		Logger:      log,
	})
}
