package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutexSerializesSameKey(t *testing.T) {
	m := NewShardedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("user-1")
			counter++
			m.Unlock("user-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestShardedMutexShardForIsStable(t *testing.T) {
	m := NewShardedMutex()

	assert.Equal(t, m.shardFor("user-1"), m.shardFor("user-1"))
	assert.Equal(t, 0, m.shardFor(""))
}

func TestShardedMutexDifferentKeysDoNotBlock(t *testing.T) {
	m := NewShardedMutex()

	// Find two keys on different shards; holding one must not block the other.
	keyA := "user-a"
	keyB := ""
	for _, candidate := range []string{"user-b", "user-c", "user-d", "user-e"} {
		if m.shardFor(candidate) != m.shardFor(keyA) {
			keyB = candidate
			break
		}
	}
	if keyB == "" {
		t.Skip("no candidate key landed on a different shard")
	}

	m.Lock(keyA)
	defer m.Unlock(keyA)

	done := make(chan struct{})
	go func() {
		m.Lock(keyB)
		m.Unlock(keyB)
		close(done)
	}()
	<-done
}
