package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		wantError bool
	}{
		{
			name:      "valid base directory",
			baseDir:   t.TempDir(),
			wantError: false,
		},
		{
			name:      "creates non-existent directory",
			baseDir:   filepath.Join(t.TempDir(), "new-dir"),
			wantError: false,
		},
		{
			name:      "empty base directory",
			baseDir:   "",
			wantError: true,
		},
		{
			name:      "dot as base directory",
			baseDir:   ".",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewLocalStorage(tt.baseDir)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if storage == nil {
				t.Fatal("expected storage but got nil")
			}
		})
	}
}

func TestLocalStorage_Put(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	tests := []struct {
		name      string
		bucket    string
		key       string
		content   string
		size      int64
		wantError bool
	}{
		{
			name:    "simple object",
			bucket:  "attachments",
			key:     "test.txt",
			content: "hello world",
			size:    11,
		},
		{
			name:    "nested key",
			bucket:  "attachments",
			key:     "a/b/test.txt",
			content: "nested content",
			size:    14,
		},
		{
			name:      "empty key",
			bucket:    "attachments",
			key:       "",
			content:   "content",
			size:      7,
			wantError: true,
		},
		{
			name:      "empty bucket",
			bucket:    "",
			key:       "test.txt",
			content:   "content",
			size:      7,
			wantError: true,
		},
		{
			name:      "path traversal attempt",
			bucket:    "attachments",
			key:       "../../outside.txt",
			content:   "malicious",
			size:      9,
			wantError: true,
		},
		{
			name:      "size mismatch",
			bucket:    "attachments",
			key:       "short.txt",
			content:   "abc",
			size:      99,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Put(ctx, tt.bucket, tt.key, strings.NewReader(tt.content), tt.size, "text/plain")

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			stream, err := storage.GetStream(ctx, tt.bucket, tt.key)
			if err != nil {
				t.Fatalf("failed to read back object: %v", err)
			}
			defer stream.Close()

			got, err := io.ReadAll(stream)
			if err != nil {
				t.Fatalf("failed to read stream: %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("expected %q, got %q", tt.content, string(got))
			}
		})
	}
}

func TestLocalStorage_GetStream(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Run("missing object", func(t *testing.T) {
		_, err := storage.GetStream(ctx, "attachments", "missing.txt")
		if !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})
}

func TestLocalStorage_Remove(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Run("removes an existing object", func(t *testing.T) {
		content := "bytes"
		if err := storage.Put(ctx, "b", "k.txt", strings.NewReader(content), int64(len(content)), ""); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		if err := storage.Remove(ctx, "b", "k.txt"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if _, err := storage.GetStream(ctx, "b", "k.txt"); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound after remove, got %v", err)
		}
	})

	t.Run("missing object", func(t *testing.T) {
		if err := storage.Remove(ctx, "b", "missing.txt"); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})
}

func TestLocalStorage_Stat(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	t.Run("returns the object size", func(t *testing.T) {
		content := "twelve bytes"
		if err := storage.Put(ctx, "b", "k.txt", strings.NewReader(content), int64(len(content)), ""); err != nil {
			t.Fatalf("failed to put: %v", err)
		}
		size, err := storage.Stat(ctx, "b", "k.txt")
		if err != nil {
			t.Fatalf("failed to stat: %v", err)
		}
		if size != int64(len(content)) {
			t.Errorf("expected size %d, got %d", len(content), size)
		}
	})

	t.Run("missing object", func(t *testing.T) {
		if _, err := storage.Stat(ctx, "b", "missing.txt"); !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})
}

func TestNewBlobStorage(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		s, err := NewBlobStorage("local", map[string]interface{}{"base_dir": t.TempDir()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s == nil {
			t.Fatal("expected storage but got nil")
		}
	})

	t.Run("local without base_dir", func(t *testing.T) {
		if _, err := NewBlobStorage("local", map[string]interface{}{}); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		if _, err := NewBlobStorage("ftp", map[string]interface{}{}); err == nil {
			t.Error("expected error but got none")
		}
	})
}
