package keymutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := New()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("tenant-a|agent|host-1")
			defer km.Unlock("tenant-a|agent|host-1")

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "same key must never be held concurrently")
	assert.Equal(t, 0, km.Len(), "entries must be reclaimed after release")
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := New()

	km.Lock("key-a")

	done := make(chan struct{})
	go func() {
		// 不同key不应被key-a阻塞
		km.Lock("key-b")
		km.Unlock("key-b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on independent key blocked")
	}

	km.Unlock("key-a")
	assert.Equal(t, 0, km.Len())
}

func TestKeyMutexUnlockUnheldPanics(t *testing.T) {
	km := New()
	assert.Panics(t, func() {
		km.Unlock("never-locked")
	})
}
