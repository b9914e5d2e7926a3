package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrObjectNotFound is returned when a requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a bucket or key is invalid or contains
	// path traversal.
	ErrInvalidKey = errors.New("invalid object key")
)

// BlobStorage stores and retrieves binary objects addressed by bucket and key.
// It backs test case attachments and cached run reports.
type BlobStorage interface {
	// Put stores size bytes from the reader under bucket/key.
	// contentType may be empty.
	Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error

	// GetStream opens the object at bucket/key for reading.
	GetStream(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Remove deletes the object at bucket/key.
	Remove(ctx context.Context, bucket, key string) error

	// Stat returns the size of the object at bucket/key, or ErrObjectNotFound.
	Stat(ctx context.Context, bucket, key string) (int64, error)
}

// NewBlobStorage creates a BlobStorage implementation based on configuration.
func NewBlobStorage(storageType string, config map[string]interface{}) (BlobStorage, error) {
	switch strings.ToLower(storageType) {
	case "local":
		baseDir, ok := config["base_dir"].(string)
		if !ok || baseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(baseDir)

	case "s3":
		region, ok := config["region"].(string)
		if !ok || region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}
		return NewS3Storage(region)

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
