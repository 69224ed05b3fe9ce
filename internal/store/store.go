package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/eduverse/tutorhub-server-go/pkg/metrics"
)

// Collection names owned by the store. Sessions are derived from account
// device tokens and are never persisted separately.
const (
	CollectionAccounts    = "accounts"
	CollectionChapters    = "chapters"
	CollectionContents    = "contents"
	CollectionProgress    = "progress"
	CollectionCoupons     = "coupons"
	CollectionEnrollments = "enrollments"
	CollectionMessages    = "messages"
)

// ErrNotFound is returned by backends when a collection has never been written.
var ErrNotFound = errors.New("collection not found")

// Backend persists whole collections as JSON documents.
type Backend interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, collection string, data []byte) error
}

// Closer is implemented by backends holding external connections.
type Closer interface {
	Close() error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store wraps a Backend with per-collection write serialization. Each named
// collection gets its own mutex so a progress write never blocks a friend
// request write.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store over the given backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Backend exposes the underlying backend for health checks and shutdown.
func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

// Read loads a collection into dest. It returns false and leaves dest
// untouched when the collection is absent or its stored document cannot be
// decoded; corruption is treated as "collection empty", never as an error.
func (s *Store) Read(ctx context.Context, collection string, dest interface{}) bool {
	data, err := s.backend.Load(ctx, collection)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("collection load failed, treating as empty",
				slog.String("collection", collection),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("collection document corrupt, treating as empty",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		return false
	}

	return true
}

// Write replaces a collection wholesale.
func (s *Store) Write(ctx context.Context, collection string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, collection, data); err != nil {
		return err
	}

	metrics.ObserveStoreWrite(collection)
	return nil
}

// Update runs a serialized read-modify-write cycle on one collection. The
// mutate callback receives a fail-soft reader for the current document and
// returns the replacement value. Returning a nil value skips the write, which
// mutations use to avoid persistence churn when nothing changed.
func (s *Store) Update(ctx context.Context, collection string, mutate func(read func(dest interface{}) bool) (interface{}, error)) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	read := func(dest interface{}) bool {
		return s.Read(ctx, collection, dest)
	}

	value, err := mutate(read)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	return s.Write(ctx, collection, value)
}

// Ping checks backend connectivity where the backend supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases backend resources where the backend holds any.
func (s *Store) Close() error {
	if c, ok := s.backend.(Closer); ok {
		return c.Close()
	}
	return nil
}
