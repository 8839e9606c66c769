package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"photopipe/internal/models"
)

// S3 talks to any S3-compatible object store through the MinIO client.
type S3 struct {
	client *minio.Client
	region string
}

func NewS3(cfg models.S3Config) (*S3, error) {
	const op = "blobstore.NewS3"

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &S3{client: client, region: cfg.Region}, nil
}

// EnsureBucket creates bucket if it does not exist yet.
func (s *S3) EnsureBucket(ctx context.Context, bucket string) error {
	const op = "blobstore.S3.EnsureBucket"

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("%s: check bucket %s: %w", op, bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("%s: make bucket %s: %w", op, bucket, err)
	}
	return nil
}

func (s *S3) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	const op = "blobstore.S3.Download"

	obj, err := s.client.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces a missing key before the read.
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, bucket, path, classify(err))
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return data, nil
}

// Upload puts the object, replacing any existing object at the same key.
func (s *S3) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	const op = "blobstore.S3.Upload"

	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func classify(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", models.ErrNotFound, err)
	}
	return err
}
