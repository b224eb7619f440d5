package fileutil

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created inside locked directories.
const LockFileName = ".transformrecorder.lock"

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 2 * time.Second
)

// ErrLocked indicates another process holds the directory lock.
var ErrLocked = errors.New("directory locked by another recorder")

// DirLock is an exclusive advisory lock on a directory.
type DirLock struct {
	lock *flock.Flock
}

// LockDir takes the exclusive lock for dir, retrying until ctx is done or a
// short timeout elapses.
func LockDir(ctx context.Context, dir string) (*DirLock, error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLocked, dir, err)
		}
		return nil, fmt.Errorf("acquire lock in %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &DirLock{lock: lock}, nil
}

// Unlock releases the lock. It is safe to call on a nil lock.
func (l *DirLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
