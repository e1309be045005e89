package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"veristay/pkg/platform/sentinel"
)

const otpKeyPrefix = "otp:code:"

// RedisStore keeps issued codes in Redis with TTL eviction, for deployments
// with more than one gateway instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the record with an expiry matching the code TTL.
func (s *RedisStore) Put(ctx context.Context, identifier string, rec Issued) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal issued code: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, otpKeyPrefix+identifier, payload, ttl).Err()
}

// Get returns the issued record, or sentinel.ErrNotFound once Redis expired it.
func (s *RedisStore) Get(ctx context.Context, identifier string) (*Issued, error) {
	raw, err := s.client.Get(ctx, otpKeyPrefix+identifier).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get issued code: %w", err)
	}
	var rec Issued
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal issued code: %w", err)
	}
	return &rec, nil
}

// Delete removes the record.
func (s *RedisStore) Delete(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, otpKeyPrefix+identifier).Err()
}
