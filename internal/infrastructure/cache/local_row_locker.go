package cache

import (
	"context"
	"sync"

	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
)

// LocalRowLocker is a keyed mutex for single-replica deployments. Waiting
// is cancellable through ctx; idle keys are dropped once nobody holds or
// waits on them.
type LocalRowLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	token chan struct{}
	refs  int
}

// NewLocalRowLocker creates a new in-process row locker
func NewLocalRowLocker() *LocalRowLocker {
	return &LocalRowLocker{
		slots: make(map[string]*lockSlot),
	}
}

// Lock blocks until key is free or ctx is done
func (l *LocalRowLocker) Lock(ctx context.Context, key string) (func(), error) {
	slot := l.acquireSlot(key)

	select {
	case slot.token <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.token
			l.releaseSlot(key, slot)
		})
	}, nil
}

// Keys returns the number of keys currently held or waited on
func (l *LocalRowLocker) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *LocalRowLocker) acquireSlot(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{token: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalRowLocker) releaseSlot(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

var _ inventoryapp.RowLocker = (*LocalRowLocker)(nil)
