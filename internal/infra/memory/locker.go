package memory

import (
	"context"
	"sync"
)

// Locker is a process-local keyed mutex. Waiters give up when their context ends.
type Locker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	slot chan struct{}
	refs int
}

func NewLocker() *Locker {
	return &Locker{keys: make(map[string]*keyLock)}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{slot: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.slot <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.slot
			l.release(key, kl)
		})
	}, nil
}

// Held returns the number of callers holding or waiting for key.
func (l *Locker) Held(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if kl, ok := l.keys[key]; ok {
		return kl.refs
	}
	return 0
}

func (l *Locker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}
