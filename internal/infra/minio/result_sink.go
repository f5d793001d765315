package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"quiz-reviewer/internal/config"
	"quiz-reviewer/internal/domain"
)

// ResultSink uploads exported results to an S3-compatible bucket.
type ResultSink struct {
	client *minio.Client
	config config.MinioConfig
}

func NewResultSink(cfg config.MinioConfig) (*ResultSink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &ResultSink{client: client, config: cfg}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *ResultSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Save uploads the result as JSON and returns its s3:// location.
func (s *ResultSink) Save(ctx context.Context, name string, result domain.ExportedResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	object := s.objectName(name)
	_, err = s.client.PutObject(ctx, s.config.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload result: %w", err)
	}
	return "s3://" + s.config.Bucket + "/" + object, nil
}

func (s *ResultSink) objectName(name string) string {
	if s.config.Prefix == "" {
		return name
	}
	return path.Join(s.config.Prefix, name)
}
