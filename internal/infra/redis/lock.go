package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrLockHeld = errors.New("lock is held by another owner")

type lockStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
}

// RedisLocker is a single-instance lease lock. Each holder gets a random
// token and only that token can release the lease.
type RedisLocker struct {
	store   lockStore
	tries   int
	backoff time.Duration
}

func NewLocker(store lockStore) *RedisLocker {
	return &RedisLocker{store: store, tries: 5, backoff: 50 * time.Millisecond}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < l.tries; i++ {
		ok, err := l.store.SetNX(ctx, key, token, ttl)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	return "", ErrLockHeld
}

// Unlock releases the lease if token still owns it. A lease that already
// expired or changed hands is left alone.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.store.DelIfEqual(ctx, key, token)
	return err
}
