package service

import "sync"

// scheduleLocks serializes writers per schedule id. Entries are dropped once no goroutine holds or waits on them.
type scheduleLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newScheduleLocks() *scheduleLocks {
	return &scheduleLocks{locks: make(map[string]*refLock)}
}

// lock blocks until the schedule is free and returns the matching unlock.
func (l *scheduleLocks) lock(scheduleID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[scheduleID]
	if !ok {
		entry = &refLock{}
		l.locks[scheduleID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, scheduleID)
		}
		l.mu.Unlock()
	}
}

func (l *scheduleLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
