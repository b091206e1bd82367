package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLocked is returned by Locker.Acquire when another holder owns the key.
var ErrLocked = errors.New("cache: key is locked")

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns "" and no error on a miss.
	Get(ctx context.Context, key string) (string, error)
}

type Locker interface {
	// Acquire takes key for at most ttl. The returned func releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

func Key(namespace, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, key)
}
