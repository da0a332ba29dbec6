// internal/pkg/lock/lock.go
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock is held by another worker.
var ErrNotAcquired = fmt.Errorf("lock not acquired")

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// AcquireAccount takes a short exclusive lock scoped to one account.
// Callers serialize entitlement writes through this lock.
func (l *Locker) AcquireAccount(ctx context.Context, accountID int64, ttl time.Duration) (*Lock, error) {
	key := fmt.Sprintf("lock:account:%d", accountID)
	token := ulid.Make().String()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lock{client: l.client, key: key, token: token}, nil
}

// AcquireAccountWait retries acquisition until the context expires.
func (l *Locker) AcquireAccountWait(ctx context.Context, accountID int64, ttl time.Duration) (*Lock, error) {
	for {
		lk, err := l.AcquireAccount(ctx, accountID, ttl)
		if err == nil {
			return lk, nil
		}
		if err != ErrNotAcquired {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for lock: %w", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Release frees the lock if this holder still owns it.
func (lk *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
