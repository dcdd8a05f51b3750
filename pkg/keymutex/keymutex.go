// Package keymutex provides mutual exclusion scoped to a string key.
package keymutex

import "sync"

// Locker hands out one mutex per key. Entries are reference counted and
// removed once no goroutine holds or waits on the key, so the internal
// map does not grow with the number of keys ever seen.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	holders int
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// Lock blocks until the key is exclusively held by the caller.
func (l *Locker) Lock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.holders++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the key. Unlocking a key that is not held panics, same
// as sync.Mutex.
func (l *Locker) Unlock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		l.mu.Unlock()
		panic("keymutex: unlock of unheld key " + key)
	}
	e.holders--
	if e.holders == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}
