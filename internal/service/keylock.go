package service

import (
	"sync"

	"github.com/google/uuid"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex serializes mutating lifecycle operations per request id, so two
// concurrent transitions on the same request cannot interleave their reads and
// writes. Entries are reference counted and removed once idle.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[uuid.UUID]*lockEntry)}
}

func (k *keyedMutex) Lock(id uuid.UUID) {
	k.mu.Lock()
	entry, ok := k.entries[id]
	if !ok {
		entry = &lockEntry{}
		k.entries[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(id uuid.UUID) {
	k.mu.Lock()
	entry := k.entries[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
