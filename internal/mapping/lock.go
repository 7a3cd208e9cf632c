package mapping

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/demandprep/internal/contracts"
)

// LocalLocker serialises writers of the same key inside one process
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Lock blocks until key is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for lock %s: %w: %w", key, contracts.ErrLockHeld, ctx.Err())
	}
}
