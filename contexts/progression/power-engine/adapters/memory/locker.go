package memory

import (
	"context"
	"strings"
	"sync"
)

// UserLocker serialises commits per user inside one process. Waiters give
// up when their context ends.
type UserLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewUserLocker() *UserLocker {
	return &UserLocker{slots: make(map[string]chan struct{})}
}

func (l *UserLocker) LockUser(ctx context.Context, userID string) (func(), error) {
	slot := l.slot(strings.TrimSpace(userID))
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

func (l *UserLocker) slot(userID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[userID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[userID] = slot
	}
	return slot
}
