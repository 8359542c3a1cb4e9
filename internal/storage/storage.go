package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/imagehost/backend/internal/config"
	apperrors "github.com/imagehost/backend/internal/errors"
)

// MaxImageSize is the largest upload accepted, in bytes.
const MaxImageSize = 10 << 20

// allowedImageTypes maps accepted content types to the extension used
// for the stored object.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsAllowedImageType reports whether uploads of the given content type
// are accepted.
func IsAllowedImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, ok := allowedImageTypes[mediaType]
	return ok
}

// ============================================================================
// Browse client (minio-go) - presigned URLs and health checks
// ============================================================================

// Client provides read-side access to the photo bucket.
type Client struct {
	client *minio.Client
	bucket string
}

// Config holds the configuration for the browse client.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New creates a new browse client.
func New(cfg *Config) (*Client, error) {
	// Strip protocol prefix if present (minio-go expects host:port)
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
	ETag        string
}

// StatObject returns metadata about an object without downloading it.
func (c *Client) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return &ObjectInfo{
		Size:        info.Size,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}, nil
}

// ObjectExists checks whether an object is present in the bucket.
func (c *Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignedGetURL returns a time-limited URL a browser can fetch the
// image from directly, keeping image bytes off this server.
func (c *Client) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// DeleteObject removes an object from the bucket.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		err = c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// Ping verifies connectivity to the storage backend.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	return err
}

// ============================================================================
// ImageStorage (aws-sdk-go-v2) - uploads with content deduplication
// ============================================================================

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	StorageKey  string `json:"storage_key"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	IsNew       bool   `json:"is_new"` // false if the same bytes were already stored
}

// ImageStore defines the interface for image uploads.
type ImageStore interface {
	// Upload stores image bytes, deduplicating on content hash.
	Upload(ctx context.Context, r io.Reader, contentType string) (*UploadResult, error)
	// Exists checks if an object with the given key is stored.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
}

// S3ImageStore implements ImageStore against S3-compatible storage.
type S3ImageStore struct {
	client *s3.Client
	bucket string
}

// NewS3ImageStore creates the upload-side storage client. The endpoint
// override and path-style addressing make it work against MinIO too.
func NewS3ImageStore(cfg *config.Config) (*S3ImageStore, error) {
	opts := s3.Options{
		Region:       cfg.S3Region,
		Credentials:  awscreds.NewStaticCredentialsProvider(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		UsePathStyle: cfg.S3UsePathStyle,
	}

	if cfg.MinioEndpoint != "" {
		scheme := "http://"
		if cfg.MinioUseSSL {
			scheme = "https://"
		}
		endpoint := cfg.MinioEndpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = scheme + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3ImageStore{
		client: s3.New(opts),
		bucket: cfg.MinioBucket,
	}, nil
}

// StorageKey returns the object key for a content hash and content type.
func StorageKey(contentHash, contentType string) string {
	ext := allowedImageTypes[contentType]
	if ext == "" {
		ext = ".bin"
	}
	return path.Join("images", contentHash[:2], contentHash+ext)
}

// Upload hashes the image bytes and stores them under a content-addressed
// key. Identical uploads become a single object.
func (s *S3ImageStore) Upload(ctx context.Context, r io.Reader, contentType string) (*UploadResult, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || allowedImageTypes[mediaType] == "" {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	// Uploads are capped at MaxImageSize so buffering is bounded.
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("upload exceeds %d bytes", MaxImageSize)
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])
	key := StorageKey(contentHash, mediaType)

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		return &UploadResult{
			StorageKey:  key,
			ContentHash: contentHash,
			Size:        int64(len(data)),
			IsNew:       false,
		}, nil
	}

	// PutObject is retried on transient failures; the body is an in-memory
	// buffer, so each attempt re-reads from the start.
	err = apperrors.Retry(ctx, apperrors.StorageRetryConfig(), func(ctx context.Context) error {
		_, putErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(mediaType),
		})
		return putErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadResult{
		StorageKey:  key,
		ContentHash: contentHash,
		Size:        int64(len(data)),
		IsNew:       true,
	}, nil
}

// Exists checks if an object with the given key is stored.
func (s *S3ImageStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an object.
func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
