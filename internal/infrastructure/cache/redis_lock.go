package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// unlockScript releases the lock only when the stored token matches, so
// an instance whose lease expired cannot release a lock reacquired by
// another instance.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock implements shared.DistributedLock on a Redis SET NX lease.
// The overdue sweep uses it so only one instance runs the daily job.
type RedisLock struct {
	client    *redis.Client
	keyPrefix string
	token     string

	mu   sync.Mutex
	held map[string]string
}

// NewRedisLock creates a lock manager on an existing Redis client.
// The token identifies this process instance in lock values.
func NewRedisLock(client *redis.Client, token string) *RedisLock {
	return &RedisLock{
		client:    client,
		keyPrefix: "billing:lock:",
		token:     token,
		held:      make(map[string]string),
	}
}

// TryLock attempts to acquire the named lock for at most ttl
func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	redisKey := l.keyPrefix + key
	ok, err := l.client.SetNX(ctx, redisKey, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if ok {
		l.mu.Lock()
		l.held[key] = l.token
		l.mu.Unlock()
	}
	return ok, nil
}

// Unlock releases the named lock if this instance still holds it
func (l *RedisLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.held[key]
	delete(l.held, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := unlockScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}

var _ shared.DistributedLock = (*RedisLock)(nil)
