package storage

import (
	"errors"
	"testing"
)

func TestNewS3Storage(t *testing.T) {
	t.Run("empty region", func(t *testing.T) {
		if _, err := NewS3Storage(""); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("valid region", func(t *testing.T) {
		storage, err := NewS3Storage("us-east-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if storage == nil {
			t.Fatal("expected storage but got nil")
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		key       string
		wantKey   string
		wantError bool
	}{
		{
			name:    "simple key",
			bucket:  "b",
			key:     "object.txt",
			wantKey: "object.txt",
		},
		{
			name:    "nested key",
			bucket:  "b",
			key:     "a/b/object.txt",
			wantKey: "a/b/object.txt",
		},
		{
			name:    "key with redundant segments",
			bucket:  "b",
			key:     "a/./object.txt",
			wantKey: "a/object.txt",
		},
		{
			name:      "empty key",
			bucket:    "b",
			key:       "",
			wantError: true,
		},
		{
			name:      "empty bucket",
			bucket:    "",
			key:       "object.txt",
			wantError: true,
		},
		{
			name:      "traversal key",
			bucket:    "b",
			key:       "../object.txt",
			wantError: true,
		},
		{
			name:      "absolute key",
			bucket:    "b",
			key:       "/object.txt",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateKey(tt.bucket, tt.key)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("expected ErrInvalidKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, got)
			}
		})
	}
}
