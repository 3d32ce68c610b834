package utils

import "sync"

// KeyedMutex serializes work per key while letting different keys run in parallel.
// Entries are dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
