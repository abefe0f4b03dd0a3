// Package storage uploads listing images to an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/propertyshodh/shodh/pkg/config"
)

// presignTTL is the longest expiry S3 accepts for a presigned GET.
const presignTTL = 7 * 24 * time.Hour

// bucketClient is the slice of *minio.Client the uploader uses.
type bucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, params url.Values) (*url.URL, error)
}

// S3Uploader stores images under <owner>/<uuid><ext>.
type S3Uploader struct {
	client     bucketClient
	bucketName string
	region     string
	publicBase string
	newID      func() string

	initOnce sync.Once
	initErr  error
}

// NewS3Uploader builds an uploader from cfg.
func NewS3Uploader(cfg config.StorageConfig) (*S3Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return newUploader(client, bucket, region, cfg.PublicBaseURL), nil
}

func newUploader(c bucketClient, bucket, region, publicBase string) *S3Uploader {
	return &S3Uploader{
		client:     c,
		bucketName: bucket,
		region:     region,
		publicBase: strings.TrimRight(publicBase, "/"),
		newID:      uuid.NewString,
	}
}

func (s *S3Uploader) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Upload stores each file and returns its URL, in input order. Files
// uploaded before a failure stay in the bucket.
func (s *S3Uploader) Upload(ctx context.Context, ownerID string, paths []string) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("uploader is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		key := s.objectKey(ownerID, p)
		_, err := s.client.FPutObject(ctx, s.bucketName, key, p, minio.PutObjectOptions{
			ContentType: contentType(p),
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", filepath.Base(p), err)
		}
		u, err := s.url(ctx, key)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *S3Uploader) objectKey(ownerID, path string) string {
	owner := strings.Trim(strings.TrimSpace(ownerID), "/")
	if owner == "" {
		owner = "guest"
	}
	return owner + "/" + s.newID() + strings.ToLower(filepath.Ext(path))
}

func (s *S3Uploader) url(ctx context.Context, key string) (string, error) {
	if s.publicBase != "" {
		return s.publicBase + "/" + s.bucketName + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
