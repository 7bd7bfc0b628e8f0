package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openforecast/marketd/internal/domain"
)

// LockManager implements domain.LockManager with per-key in-process mutexes.
// Acquire blocks until the lock is free or the context is cancelled; the TTL
// is ignored since an in-process holder cannot outlive the process.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]chan struct{})}
}

func (lm *LockManager) slot(key string) chan struct{} {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	ch, ok := lm.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lm.locks[key] = ch
	}
	return ch
}

// Acquire takes the lock for key, blocking until it is available.
func (lm *LockManager) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	ch := lm.slot(key)

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() { <-ch })
	}
	return unlock, nil
}

var _ domain.LockManager = (*LockManager)(nil)
