package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	ctx := context.Background()

	if _, err := backend.Load(ctx, "accounts"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for fresh collection, got %v", err)
	}

	if err := backend.Save(ctx, "accounts", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := backend.Load(ctx, "accounts")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("round trip mismatch: %s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, "accounts.json")); err != nil {
		t.Fatalf("expected accounts.json on disk: %v", err)
	}
}

func TestFileBackendSanitizesCollectionName(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}

	if err := backend.Save(context.Background(), "../escape", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Fatalf("collection name escaped the data directory")
	}
}
