package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tutorhub:collection:"

// RedisBackend persists collection documents as Redis string values.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// Load reads a collection document.
func (r *RedisBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+collection).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save replaces a collection document. Documents never expire.
func (r *RedisBackend) Save(ctx context.Context, collection string, data []byte) error {
	return r.client.Set(ctx, redisKeyPrefix+collection, data, 0).Err()
}

// Ping verifies Redis connectivity.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
