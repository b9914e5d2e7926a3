package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Storage implements BlobStorage using AWS S3. Buckets are passed per
// call, matching the attachment and report records which carry their own
// bucket names.
type S3Storage struct {
	client *s3.Client
}

// NewS3Storage creates an S3-backed storage client using the default
// AWS credential chain.
func NewS3Storage(region string) (*S3Storage, error) {
	if region == "" {
		return nil, fmt.Errorf("S3 region cannot be empty")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{client: s3.NewFromConfig(cfg)}, nil
}

// Put stores data from the reader under bucket/key.
func (s *S3Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	cleanKey, err := validateKey(bucket, key)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(cleanKey),
		Body:          reader,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// GetStream opens the object at bucket/key.
func (s *S3Storage) GetStream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	cleanKey, err := validateKey(bucket, key)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(cleanKey),
	})
	if err != nil {
		if isS3NotFoundError(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	return result.Body, nil
}

// Remove deletes the object at bucket/key.
func (s *S3Storage) Remove(ctx context.Context, bucket, key string) error {
	cleanKey, err := validateKey(bucket, key)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(cleanKey),
	}); err != nil {
		if isS3NotFoundError(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// Stat returns the size of the object at bucket/key.
func (s *S3Storage) Stat(ctx context.Context, bucket, key string) (int64, error) {
	cleanKey, err := validateKey(bucket, key)
	if err != nil {
		return 0, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(cleanKey),
	})
	if err != nil {
		if isS3NotFoundError(err) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to stat S3 object: %w", err)
	}

	if head.ContentLength == nil {
		return 0, nil
	}
	return *head.ContentLength, nil
}

// validateKey rejects empty, absolute, or traversal keys. S3 has no
// filesystem, but keeping the same rules as LocalStorage means records
// stay portable between backends.
func validateKey(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("%w: bucket and key are required", ErrInvalidKey)
	}

	cleanKey := path.Clean(key)
	if cleanKey == "." || cleanKey[0] == '/' || cleanKey[0] == '.' {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}

	return cleanKey, nil
}

// isS3NotFoundError checks if an error is an S3 "not found" error.
func isS3NotFoundError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
