package cache

import "sync"

// ChanLocker runs at most one function per key at a time.
type ChanLocker struct {
	mu    sync.Mutex
	locks map[interface{}]chan struct{}
}

func NewChanLocker() *ChanLocker {
	return &ChanLocker{locks: make(map[interface{}]chan struct{})}
}

// Lock calls fn and returns true if no other call holds key.  Otherwise it waits for the
// holder to finish and returns false without calling fn.
func (l *ChanLocker) Lock(key interface{}, fn func()) bool {
	l.mu.Lock()
	if ch, ok := l.locks[key]; ok {
		l.mu.Unlock()
		<-ch
		return false
	}
	ch := make(chan struct{})
	l.locks[key] = ch
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.locks, key)
		l.mu.Unlock()
		close(ch)
	}()
	fn()
	return true
}
