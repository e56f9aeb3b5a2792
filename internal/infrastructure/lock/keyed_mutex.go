package lock

import (
	"context"
	"sync"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// lockEntry is a per-customer channel semaphore with a reference count so
// idle entries can be reclaimed once nobody is waiting on them.
type lockEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutexManager implements CustomerLockManager with in-process mutexes,
// one per customer. Suitable for single-instance deployments and testing.
type KeyedMutexManager struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

// NewKeyedMutexManager creates a new in-process lock manager
func NewKeyedMutexManager() *KeyedMutexManager {
	return &KeyedMutexManager{
		entries: make(map[uuid.UUID]*lockEntry),
	}
}

// Acquire blocks until the customer's lock is held or the context is done
func (m *KeyedMutexManager) Acquire(ctx context.Context, customerID uuid.UUID) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[customerID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		m.entries[customerID] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.sem
				m.unref(customerID, e)
			})
		}
		return release, nil
	case <-ctx.Done():
		m.unref(customerID, e)
		return nil, ctx.Err()
	}
}

// Close releases any resources held by the manager
func (m *KeyedMutexManager) Close() error {
	return nil
}

func (m *KeyedMutexManager) unref(customerID uuid.UUID, e *lockEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, customerID)
	}
	m.mu.Unlock()
}

// Size returns the number of tracked customer locks (for testing/monitoring)
func (m *KeyedMutexManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Ensure KeyedMutexManager implements CustomerLockManager
var _ shared.CustomerLockManager = (*KeyedMutexManager)(nil)
