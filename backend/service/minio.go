package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/promociones-residenciales/reservas/backend/config"
)

type MinioService struct {
	client  *minio.Client
	bucket  string
	config  *config.MinioConfig
	storage *config.StorageConfig
}

func NewMinioService(cfg *config.MinioConfig, storage *config.StorageConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client:  client,
		bucket:  cfg.Bucket,
		config:  cfg,
		storage: storage,
	}, nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy allows anonymous GET on the signed and template prefixes only.
func (s *MinioService) PublicReadPolicy() (string, error) {
	var resources []string
	for _, prefix := range []string{s.storage.SignedPrefix, s.storage.TemplatePrefix} {
		if prefix != "" {
			resources = append(resources, fmt.Sprintf("arn:aws:s3:::%s/%s/*", s.bucket, strings.Trim(prefix, "/")))
		}
	}
	policy := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  resources,
		}},
	}
	data, err := json.Marshal(policy)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EnsureBucket creates the bucket if it doesn't exist and makes contract prefixes publicly readable
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	policy, err := s.PublicReadPolicy()
	if err != nil {
		return fmt.Errorf("failed to build bucket policy: %w", err)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return nil
}

// UploadFile uploads a file to MINIO under objectName
func (s *MinioService) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// Put stores data and returns its public URL.
func (s *MinioService) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := s.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return s.GetPublicURL(key), nil
}

// Delete removes the object stored under key.
func (s *MinioService) Delete(ctx context.Context, key string) error {
	return s.DeleteFile(ctx, key)
}

// DeleteFile deletes a file from MINIO
func (s *MinioService) DeleteFile(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// GetPublicURL returns the public URL for the object: the configured public base URL
// when set, the bucket URL on the MinIO endpoint otherwise
func (s *MinioService) GetPublicURL(objectName string) string {
	if s.storage != nil && s.storage.PublicBaseURL != "" {
		return strings.TrimRight(s.storage.PublicBaseURL, "/") + "/" + objectName
	}
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, objectName)
}
