package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const defaultLockRetry = 100 * time.Millisecond

// acquireLock serialises bootstraps of the same prefix across processes.
func (i *Installer) acquireLock(ctx context.Context) (func(), error) {
	fl := flock.New(i.layout.LockFile)

	i.log.Debug().Str("lock", i.layout.LockFile).Msg("waiting for bootstrap lock")
	locked, err := fl.TryLockContext(ctx, i.lockRetry)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock: %s is held by another process", i.layout.LockFile)
	}
	i.log.Debug().Str("lock", i.layout.LockFile).Msg("bootstrap lock acquired")

	return func() {
		if err := fl.Unlock(); err != nil {
			i.log.Warn().Err(err).Msg("release bootstrap lock")
		}
	}, nil
}
