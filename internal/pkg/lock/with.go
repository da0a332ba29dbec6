// internal/pkg/lock/with.go
package lock

import (
	"context"
	"time"
)

// WithAccountLock runs fn while holding the account lock, waiting for
// the lock if another worker holds it.
func (l *Locker) WithAccountLock(ctx context.Context, accountID int64, ttl time.Duration, fn func() error) error {
	lk, err := l.AcquireAccountWait(ctx, accountID, ttl)
	if err != nil {
		return err
	}
	defer lk.Release(context.Background())

	return fn()
}
