// cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

// memoryMinKeyLen models the shared-memory segment backend this store
// stands in for, which rejects keys shorter than 4 bytes.
const memoryMinKeyLen = 4

type memoryEntry struct {
	value  string
	expiry time.Time
}

// MemoryStore is an in-process Store for single-worker deployments and
// tests. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiry) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Put(_ context.Context, key, value string, expiry time.Time) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiry: expiry}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MinKeyLen() int {
	return memoryMinKeyLen
}

// MutexLock is the in-process TryLocker paired with MemoryStore.
type MutexLock struct {
	mu sync.Mutex
}

func NewMutexLock() *MutexLock {
	return &MutexLock{}
}

func (l *MutexLock) TryLock(_ context.Context) bool {
	return l.mu.TryLock()
}

func (l *MutexLock) Unlock(_ context.Context) {
	l.mu.Unlock()
}
