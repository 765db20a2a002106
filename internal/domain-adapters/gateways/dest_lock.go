package gateways

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

const lockRetryDelay = 100 * time.Millisecond

// DestinationLock serializes specfetch runs that write into the same directory.
// The lock file sits next to the directory ("{destDir}.lock") so that the
// directory itself only ever contains downloaded specs.
type DestinationLock struct {
	timeout time.Duration
}

// NewDestinationLock creates a lock helper that waits at most timeout for the lock
func NewDestinationLock(timeout time.Duration) *DestinationLock {
	return &DestinationLock{timeout: timeout}
}

// LockPath returns the lock file used for destDir
func LockPath(destDir string) string {
	return filepath.Clean(destDir) + ".lock"
}

// Acquire takes the lock for destDir and returns a function releasing it
func (l *DestinationLock) Acquire(ctx context.Context, destDir string) (func(), error) {
	lockPath := LockPath(destDir)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0750); err != nil {
		return nil, entities.NewError(entities.KindFilesystem, errors.Wrapf(err, "failed to create lock directory for %s", destDir))
	}

	fileLock := flock.New(lockPath)

	lockCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, entities.NewError(entities.KindFilesystem, errors.Wrapf(err, "destination %s is locked by another run", destDir))
	}
	if !locked {
		return nil, entities.NewError(entities.KindFilesystem, errors.Errorf("destination %s is locked by another run", destDir))
	}

	return func() {
		_ = fileLock.Unlock()
	}, nil
}
