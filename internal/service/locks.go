package service

import "sync"

// sessionLocks serializes mutations per session so every change is a single
// atomic load-modify-store against the repository. Locks are never evicted;
// the map is bounded by the number of live sessions.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{m: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) get(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.m[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.m[sessionID] = lock
	}
	return lock
}
