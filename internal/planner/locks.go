package planner

import (
	"context"
	"sync"
)

// sessionLocks serialises requests that share a session ID, so a double
// submitted form cannot race the persisted flag. Entries are reference
// counted and removed once no request holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is a one-slot semaphore, so a waiter can give up.
type sessionLock struct {
	slot chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// lock waits until id is free and returns the matching unlock function. A
// free lock is always taken; while waiting, lock returns ctx.Err() as soon as
// ctx is done.
func (l *sessionLocks) lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{slot: make(chan struct{}, 1)}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.slot <- struct{}{}:
	default:
		select {
		case sl.slot <- struct{}{}:
		case <-ctx.Done():
			l.release(id, sl)
			return nil, ctx.Err()
		}
	}

	return func() {
		<-sl.slot
		l.release(id, sl)
	}, nil
}

func (l *sessionLocks) release(id string, sl *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, id)
	}
}

// held reports how many ids have a holder or waiter.
func (l *sessionLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
