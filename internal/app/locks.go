package app

import "sync"

// hotelLocks hands out one mutex per hotel id. Entries are never removed;
// the set is bounded by the catalog size.
type hotelLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newHotelLocks() *hotelLocks { return &hotelLocks{m: make(map[string]*sync.Mutex)} }

// lock acquires the hotel's mutex and returns its release func.
func (l *hotelLocks) lock(hotelID string) func() {
	l.mu.Lock()
	m, ok := l.m[hotelID]
	if !ok {
		m = &sync.Mutex{}
		l.m[hotelID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
