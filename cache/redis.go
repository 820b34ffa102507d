// cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/gateguard/gateguard/logging"
)

const (
	redisKeyPrefix = "decision:"
	redisLockKey   = "decision:write-lock"

	// redisLockExpiry bounds how long an abandoned lock (e.g. a crashed
	// worker) can keep every other worker from writing.
	redisLockExpiry = 5 * time.Second
)

// RedisStore backs the cache with a Redis instance shared across workers.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("failed to get cached decision: %w", err)
	}
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache decision: %w", err)
	}
	return nil
}

// MinKeyLen is 0: Redis accepts keys of any length.
func (s *RedisStore) MinKeyLen() int {
	return 0
}

// RedisLock is the cross-process TryLocker paired with RedisStore,
// implemented as a SET NX sentinel key.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) TryLock(ctx context.Context) bool {
	acquired, err := l.client.SetNX(ctx, redisLockKey, "1", redisLockExpiry).Result()
	if err != nil {
		logger.Error("failed to acquire cache write lock", zap.Error(err))
		return false
	}
	return acquired
}

func (l *RedisLock) Unlock(ctx context.Context) {
	if err := l.client.Del(ctx, redisLockKey).Err(); err != nil {
		logger.Error("failed to release cache write lock", zap.Error(err))
	}
}
