// Package redis is the Redis storage backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/pkg/database"
)

const keyPrefix = "shopstate:"

// Backend implements storage.Backend using Redis strings.
type Backend struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed store. Keys expire ttl after their last write;
// a zero ttl keeps them forever.
func New(client *redis.Client, ttl time.Duration) *Backend {
	return &Backend{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) (value string, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "GET", keyPrefix+key)
	defer func() { end(err) }()

	value, err = b.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores value under key with the configured TTL.
func (b *Backend) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "SET", keyPrefix+key)
	defer func() { end(err) }()

	if err = b.client.Set(ctx, keyPrefix+key, value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (b *Backend) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "DEL", keyPrefix+key)
	defer func() { end(err) }()

	if err = b.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
