// cache/store.go
package cache

import (
	"context"
	"time"
)

// Store is the key/value backend capability the adapter runs on. Backends
// may be shared across worker processes; Get and Put must be safe for
// concurrent use.
type Store interface {
	// Get returns the stored value and whether it was found. Not-found is
	// not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores value under key until the absolute expiry.
	Put(ctx context.Context, key, value string, expiry time.Time) error

	// MinKeyLen reports the backend's minimum key length, or 0 when the
	// backend has no such restriction. Callers must pad shorter keys.
	MinKeyLen() int
}

// TryLocker is the global, non-blocking write lock shared by all workers
// that write to the same store. There is one lock for the whole cache, not
// one per key, and it is only held for the duration of a single store.
type TryLocker interface {
	// TryLock attempts to acquire the lock without waiting. It returns false
	// when the lock is held elsewhere or could not be acquired.
	TryLock(ctx context.Context) bool

	Unlock(ctx context.Context)
}
