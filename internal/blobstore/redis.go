package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each blob as a JSON manifest under a namespaced key.
// SETNX provides the create-if-absent semantics.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	owner  string
	ttl    time.Duration
}

// NewRedisStore creates a store. Keys are "<prefix>:blob:<name>" and expire
// after ttl (zero keeps them forever).
func NewRedisStore(opts *redis.Options, prefix, owner string, ttl time.Duration) (*RedisStore, error) {
	if prefix == "" {
		return nil, fmt.Errorf("key prefix cannot be empty")
	}
	return &RedisStore{
		rdb:    redis.NewClient(opts),
		prefix: prefix,
		owner:  owner,
		ttl:    ttl,
	}, nil
}

// Key returns the Redis key of a blob
func (s *RedisStore) Key(name string) string {
	return fmt.Sprintf("%s:blob:%s", s.prefix, name)
}

// Ping verifies Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Create publishes the files under name unless a blob with that name exists
func (s *RedisStore) Create(ctx context.Context, name string, files []File) (Status, error) {
	m, err := newManifest(name, s.owner, files)
	if err != nil {
		return StatusOK, err
	}
	data, err := m.encode()
	if err != nil {
		return StatusOK, err
	}

	created, err := s.rdb.SetNX(ctx, s.Key(name), data, s.ttl).Result()
	if err != nil {
		return StatusOK, fmt.Errorf("failed to write blob to Redis: %w", err)
	}
	if !created {
		return StatusConflict, nil
	}
	return StatusOK, nil
}

// Fetch returns the handle of the blob published under name
func (s *RedisStore) Fetch(ctx context.Context, name string) (Handle, Status, error) {
	if err := ValidateName(name); err != nil {
		return Handle{}, StatusOK, err
	}
	m, err := s.get(ctx, s.Key(name))
	if errors.Is(err, redis.Nil) {
		return Handle{}, StatusNotFound, nil
	}
	if err != nil {
		return Handle{}, StatusOK, err
	}
	return m.handle(s.Key(name)), StatusOK, nil
}

// Download writes the files of the blob into dir
func (s *RedisStore) Download(ctx context.Context, h Handle, dir string) error {
	m, err := s.get(ctx, h.ID)
	if err != nil {
		return err
	}
	return m.extract(dir)
}

func (s *RedisStore) get(ctx context.Context, key string) (*Manifest, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read blob from Redis: %w", err)
	}
	return decodeManifest(data)
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
