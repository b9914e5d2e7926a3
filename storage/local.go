package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements BlobStorage on the local filesystem.
// Buckets map to subdirectories of the base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a filesystem-backed storage rooted at baseDir.
// The directory is created if it does not exist.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = filepath.Clean(baseDir)
	if baseDir == "" || baseDir == "." {
		return nil, fmt.Errorf("%w: base directory cannot be empty", ErrInvalidKey)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{baseDir: baseDir}, nil
}

// Put stores data from the reader under bucket/key.
func (s *LocalStorage) Put(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	fullPath, err := s.resolvePath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		// Drop the partial file so readers never see it.
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if size >= 0 && written != size {
		os.Remove(fullPath)
		return fmt.Errorf("short write: expected %d bytes, wrote %d", size, written)
	}

	return nil
}

// GetStream opens the object at bucket/key.
func (s *LocalStorage) GetStream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolvePath(bucket, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Remove deletes the object at bucket/key.
func (s *LocalStorage) Remove(ctx context.Context, bucket, key string) error {
	fullPath, err := s.resolvePath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Stat returns the size of the object at bucket/key.
func (s *LocalStorage) Stat(ctx context.Context, bucket, key string) (int64, error) {
	fullPath, err := s.resolvePath(bucket, key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return info.Size(), nil
}

// resolvePath joins bucket/key under baseDir and rejects path traversal.
func (s *LocalStorage) resolvePath(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("%w: bucket and key are required", ErrInvalidKey)
	}

	cleaned := filepath.Join(filepath.Clean(bucket), filepath.Clean(key))
	fullPath := filepath.Join(s.baseDir, cleaned)

	relPath, err := filepath.Rel(s.baseDir, fullPath)
	if err != nil || relPath == "." || (len(relPath) > 0 && relPath[0] == '.') {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}

	return fullPath, nil
}
