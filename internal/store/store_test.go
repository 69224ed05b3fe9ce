package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func newTestStore() (*Store, *MemoryBackend) {
	backend := NewMemoryBackend()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(backend, logger), backend
}

type countingBackend struct {
	inner *MemoryBackend
	saves int
}

func (c *countingBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	return c.inner.Load(ctx, collection)
}

func (c *countingBackend) Save(ctx context.Context, collection string, data []byte) error {
	c.saves++
	return c.inner.Save(ctx, collection, data)
}

func TestReadMissingCollection(t *testing.T) {
	st, _ := newTestStore()

	var items []string
	if ok := st.Read(context.Background(), "nothing", &items); ok {
		t.Fatalf("expected Read to report absence, got ok")
	}
	if items != nil {
		t.Fatalf("expected dest untouched, got %v", items)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	st, _ := newTestStore()
	ctx := context.Background()

	want := []string{"alpha", "beta"}
	if err := st.Write(ctx, "things", want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var got []string
	if ok := st.Read(ctx, "things", &got); !ok {
		t.Fatalf("expected Read to succeed")
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestReadCorruptDocumentIsEmpty(t *testing.T) {
	st, backend := newTestStore()
	ctx := context.Background()

	if err := backend.Save(ctx, "things", []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt data: %v", err)
	}

	var items []string
	if ok := st.Read(ctx, "things", &items); ok {
		t.Fatalf("expected corrupt document to read as empty")
	}
	if items != nil {
		t.Fatalf("expected dest untouched, got %v", items)
	}
}

func TestCorruptDocumentRecoversOnWrite(t *testing.T) {
	st, backend := newTestStore()
	ctx := context.Background()

	if err := backend.Save(ctx, "things", []byte("garbage")); err != nil {
		t.Fatalf("seed corrupt data: %v", err)
	}

	err := st.Update(ctx, "things", func(read func(dest interface{}) bool) (interface{}, error) {
		var items []string
		read(&items)
		return append(items, "fresh"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var items []string
	if ok := st.Read(ctx, "things", &items); !ok {
		t.Fatalf("expected recovered collection to read")
	}
	if len(items) != 1 || items[0] != "fresh" {
		t.Fatalf("expected recovered collection [fresh], got %v", items)
	}
}

func TestUpdateNilValueSkipsWrite(t *testing.T) {
	backend := &countingBackend{inner: NewMemoryBackend()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := New(backend, logger)
	ctx := context.Background()

	if err := st.Write(ctx, "things", []string{"a"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if backend.saves != 1 {
		t.Fatalf("expected 1 save after seed, got %d", backend.saves)
	}

	err := st.Update(ctx, "things", func(read func(dest interface{}) bool) (interface{}, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if backend.saves != 1 {
		t.Fatalf("expected no-op update to skip save, got %d saves", backend.saves)
	}
}

func TestUpdateErrorPropagatesWithoutWrite(t *testing.T) {
	backend := &countingBackend{inner: NewMemoryBackend()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := New(backend, logger)

	wantErr := ErrNotFound
	err := st.Update(context.Background(), "things", func(read func(dest interface{}) bool) (interface{}, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Fatalf("expected mutate error back, got %v", err)
	}
	if backend.saves != 0 {
		t.Fatalf("expected no saves on error, got %d", backend.saves)
	}
}
