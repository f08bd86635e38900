package domain

import (
	"context"
	"errors"
	"time"
)

var ErrLockNotAcquired = errors.New("lock is held by another request")

type Locker interface {
	// Acquire takes an exclusive lock on key for at most ttl. The returned function releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
