package cache

import (
	"context"
	"sync"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
)

// InMemoryLock implements shared.DistributedLock within a single
// process. Single-instance deployments and tests use it in place of
// the Redis lock.
type InMemoryLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewInMemoryLock creates a new in-process lock manager
func NewInMemoryLock() *InMemoryLock {
	return &InMemoryLock{locks: make(map[string]time.Time)}
}

// TryLock attempts to acquire the named lock for at most ttl
func (l *InMemoryLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expires, held := l.locks[key]; held && time.Now().Before(expires) {
		return false, nil
	}
	l.locks[key] = time.Now().Add(ttl)
	return true, nil
}

// Unlock releases the named lock
func (l *InMemoryLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

var _ shared.DistributedLock = (*InMemoryLock)(nil)
