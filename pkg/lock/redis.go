package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort mutual exclusion primitive used to serialise
// check-then-insert sequences, such as booking a substitute for a slot.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLock implements Locker with a SetNX key per resource. The TTL bounds
// how long a crashed holder can block others.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock wraps an existing Redis client.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// Acquire attempts to take the lock, returning false when it is already held.
func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the lock. Releasing a lock that expired is not an error.
func (l *RedisLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, lockKey(key)).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

func lockKey(key string) string {
	return "lock:" + key
}

// NopLocker always grants the lock. Used when Redis is not configured; the
// database uniqueness constraint remains the backstop.
type NopLocker struct{}

func (NopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (NopLocker) Release(ctx context.Context, key string) error { return nil }
