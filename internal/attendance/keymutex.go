package attendance

import "sync"

// keyMutex serializes work per string key. Transitions for the same
// (person, event, date) are not commutative, so two near-simultaneous scans
// must not both observe "no record yet"; different keys never contend.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*lockEntry)}
}

// lock acquires the mutex for key and returns the matching unlock func.
// Entries are reference-counted and removed once unused, so the map does not
// grow with the number of days the process stays up.
func (k *keyMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
