package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock(id)
			counter++
			locks.Unlock(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexReleasesIdleEntries(t *testing.T) {
	locks := newKeyedMutex()
	a, b := uuid.New(), uuid.New()

	locks.Lock(a)
	locks.Lock(b)
	locks.Unlock(b)
	locks.Unlock(a)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}
