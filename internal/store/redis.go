package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each slot under a prefixed key.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects and verifies the connection.
func NewRedisBackend(ctx context.Context, addr, password string, db int, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	if prefix == "" {
		prefix = "persona-chat"
	}
	return &RedisBackend{client: client, prefix: prefix}, nil
}

func (b *RedisBackend) key(slot string) string {
	return b.prefix + ":" + slot
}

// Read returns the slot's blob, or nil when the slot has never been written.
func (b *RedisBackend) Read(ctx context.Context, slot string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the slot's blob.
func (b *RedisBackend) Write(ctx context.Context, slot string, data []byte) error {
	return b.client.Set(ctx, b.key(slot), data, 0).Err()
}

// Ping reports connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
