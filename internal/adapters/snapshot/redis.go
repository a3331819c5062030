package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/okian/featured/internal/domain/usage"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisStore keeps each snapshot as one JSON value.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Key returns the redis key of the snapshot for environment.
func Key(environment string) string {
	return environment + ":" + usage.DocumentKey
}

// Put implements Store. SET replaces the value atomically; no TTL.
func (s *RedisStore) Put(ctx context.Context, environment string, snap usage.Snapshot) error {
	const op = "snapshot.redis.put"
	b, err := json.Marshal(normalize(snap))
	if err != nil {
		return wrap(op, ErrPersist, err)
	}
	if err := s.client.Set(ctx, Key(environment), b, 0).Err(); err != nil {
		return wrap(op, ErrPersist, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, environment string) (usage.Snapshot, error) {
	const op = "snapshot.redis.get"
	b, err := s.client.Get(ctx, Key(environment)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usage.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return usage.Snapshot{}, wrap(op, ErrRead, err)
	}
	var snap usage.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return usage.Snapshot{}, wrap(op, ErrRead, err)
	}
	return normalize(snap), nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
