package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failureKeyPrefix = "lockout:fail:"
	resendKeyPrefix  = "lockout:resend:"
	lockKeyPrefix    = "lockout:lock:"
)

// RedisStore backs the counters with Redis so attempt budgets hold across
// instances. Windows map to key TTLs: the first increment arms the expiry.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore constructs a store on the given client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) incrWithWindow(ctx context.Context, key string, ttl time.Duration) (int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return int(count), nil
}

// IncrFailure bumps the failure counter for the current window.
func (s *RedisStore) IncrFailure(ctx context.Context, identifier string, _ time.Time, ttl time.Duration) (int, error) {
	return s.incrWithWindow(ctx, failureKeyPrefix+identifier, ttl)
}

// IncrResend bumps the resend counter for the current window.
func (s *RedisStore) IncrResend(ctx context.Context, identifier string, _ time.Time, ttl time.Duration) (int, error) {
	return s.incrWithWindow(ctx, resendKeyPrefix+identifier, ttl)
}

// Lock hard-locks the identifier until the given time.
func (s *RedisStore) Lock(ctx context.Context, identifier string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, lockKeyPrefix+identifier, until.UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

// IsLocked reports whether a lock key still exists. Redis expires the key at
// the lock deadline, so presence alone is the answer.
func (s *RedisStore) IsLocked(ctx context.Context, identifier string, _ time.Time) (bool, *time.Time, error) {
	val, err := s.client.Get(ctx, lockKeyPrefix+identifier).Result()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("get lock: %w", err)
	}
	until, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return true, nil, nil
	}
	return true, &until, nil
}

// Clear drops all keys for the identifier.
func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	keys := []string{
		failureKeyPrefix + identifier,
		resendKeyPrefix + identifier,
		lockKeyPrefix + identifier,
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del lockout keys: %w", err)
	}
	return nil
}
