package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores each collection as a JSON file under a data directory.
// This is the default embedded backend, matching the single-process,
// single-writer deployment the store is designed for.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed and returns a backend.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Load reads a collection file.
func (f *FileBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(f.path(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save writes a collection file atomically via a temp file rename so a crash
// mid-write never leaves a half-written document behind.
func (f *FileBackend) Save(ctx context.Context, collection string, data []byte) error {
	path := f.path(collection)

	tmp, err := os.CreateTemp(f.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (f *FileBackend) path(collection string) string {
	// Collection names are internal constants, but sanitize anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(collection))

	return filepath.Join(f.dir, safe+".json")
}
