package game

import "sync"

// channelLocks hands out one mutex per channel so each channel has at most
// one state transition in flight. Entries are dropped once nobody holds or
// waits on them.
type channelLocks struct {
	mu sync.Mutex // guards m
	m  map[string]*channelLock
}

type channelLock struct {
	mu   sync.Mutex
	refs int
}

func newChannelLocks() *channelLocks {
	return &channelLocks{m: make(map[string]*channelLock)}
}

// lock blocks until the caller owns channelID and returns the release func.
func (l *channelLocks) lock(channelID string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[channelID]
	if !ok {
		e = &channelLock{}
		l.m[channelID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, channelID)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries.
func (l *channelLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
