// cache/adapter.go
package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	logger "github.com/gateguard/gateguard/logging"
)

// Adapter stages decision-service results in a shared key/value store,
// keyed by client network address. The cache exists purely to reduce
// remote-service load: read failures degrade to a miss and contended
// writes are abandoned, neither ever fails the request.
type Adapter struct {
	store Store
	lock  TryLocker
	ttl   time.Duration
}

func NewAdapter(store Store, lock TryLocker, ttl time.Duration) *Adapter {
	return &Adapter{
		store: store,
		lock:  lock,
		ttl:   ttl,
	}
}

// TTL returns the configured entry lifetime.
func (a *Adapter) TTL() time.Duration {
	return a.ttl
}

// key pads short addresses (e.g. "::1") with trailing spaces so they satisfy
// the backend's minimum key length.
func (a *Adapter) key(addr string) string {
	if min := a.store.MinKeyLen(); len(addr) < min {
		return addr + strings.Repeat(" ", min-len(addr))
	}
	return addr
}

// Get returns the cached payload for addr, or found=false on a miss.
// Backend errors are logged and reported as a miss.
func (a *Adapter) Get(ctx context.Context, addr string) (string, bool) {
	payload, found, err := a.store.Get(ctx, a.key(addr))
	if err != nil {
		logger.Error("error while retrieving cached response",
			zap.String("ip", addr), zap.Error(err))
		return "", false
	}
	if !found {
		logger.Debug("no response found in cache", zap.String("ip", addr))
		return "", false
	}
	logger.Debug("response found in cache", zap.String("ip", addr))
	return payload, true
}

// Put stores payload for addr, best effort. The global write lock is
// attempted without waiting; if it is held elsewhere the write is abandoned,
// since a miss on a later request will simply re-query.
func (a *Adapter) Put(ctx context.Context, addr, payload string) {
	if a.lock == nil {
		return
	}

	if !a.lock.TryLock(ctx) {
		logger.Debug("result not written to cache (lock busy)",
			zap.String("ip", addr))
		return
	}
	defer a.lock.Unlock(ctx)

	expiry := time.Now().Add(a.ttl)

	if err := a.store.Put(ctx, a.key(addr), payload, expiry); err != nil {
		logger.Error("result not written to cache",
			zap.String("ip", addr), zap.Error(err))
		return
	}

	logger.Debug("result written to cache", zap.String("ip", addr))
}
