package shared

import (
	"context"
	"time"
)

// DistributedLock serializes a named critical section across process
// instances. TryLock never blocks: it reports whether this caller won
// the lock. The TTL bounds how long a crashed holder can wedge the
// lock.
type DistributedLock interface {
	// TryLock attempts to acquire the named lock for at most ttl.
	// Returns true if this caller now holds the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases the named lock if this caller still holds it
	Unlock(ctx context.Context, key string) error
}
