package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const cacheLockRetry = 50 * time.Millisecond

// WithCacheLock runs fn while holding an exclusive file lock next to the
// database, so concurrent processes populate the reference cache one at a
// time. It waits for the lock until ctx is done.
func (s *Store) WithCacheLock(ctx context.Context, fn func() error) error {
	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLockContext(ctx, cacheLockRetry)
	if err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire cache lock: %s is held by another process", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
