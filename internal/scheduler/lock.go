package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a single-flight guard for jobs that must not run twice at
// once, across processes where the backend allows it.
type Locker interface {
	// Acquire tries to take the named lock. It returns false without
	// error when another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the named lock. Releasing a lock held by someone
	// else is a no-op.
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SET NX and a TTL, so a crashed
// holder cannot wedge the job forever.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Locker over the given redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock if free.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the lock.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("releasing lock %s: %w", key, err)
	}
	return nil
}

// MemoryLocker is an in-process Locker for deployments without redis and
// for tests. The TTL doubles as a crash guard: an expired hold is treated
// as free.
type MemoryLocker struct {
	mu    sync.Mutex
	holds map[string]time.Time
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{holds: make(map[string]time.Time)}
}

// Acquire takes the lock if free or expired.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.holds[key]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.holds[key] = time.Now().Add(ttl)
	return true, nil
}

// Release drops the lock.
func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holds, key)
	return nil
}
