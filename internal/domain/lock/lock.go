// Package lock provides a keyed mutex used to serialize work per session.
package lock

import "sync"

// Locker serializes callers that share a key.
type Locker interface {
	// Lock blocks until key is held and returns the function that releases it.
	Lock(key string) (unlock func())
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed is a Locker whose per-key mutexes are dropped once nobody holds or
// waits on them.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewKeyed creates an empty keyed mutex.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock implements Locker.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
