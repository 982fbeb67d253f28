package circulation

import "sync"

// keyedMutex provides mutual exclusion scoped to a string key.
//
// OpenLoan holds the lock for a book across its check-then-act sequence
// (availability check, persist, availability update), so two concurrent opens
// for the same book cannot both observe "available". Entries are reference
// counted and removed on final unlock, keeping the map bounded by the number
// of in-flight operations.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedMutexEntry
}

type keyedMutexEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		entries: make(map[string]*keyedMutexEntry),
	}
}

// Lock acquires the mutex for the given key, blocking until it is free.
func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()

	entry, ok := k.entries[key]
	if !ok {
		entry = &keyedMutexEntry{}
		k.entries[key] = entry
	}

	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for the given key.
// Unlocking a key that was never locked is a programming error and panics.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()

	entry, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keyedMutex: unlock of unlocked key: " + key)
	}

	entry.refs--
	if entry.refs == 0 {
		delete(k.entries, key)
	}

	k.mu.Unlock()

	entry.mu.Unlock()
}
