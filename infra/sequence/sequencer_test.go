package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerNext(t *testing.T) {
	s := New(10)
	assert.Equal(t, uint64(11), s.Next())
	assert.Equal(t, uint64(12), s.Next())
	assert.Equal(t, uint64(12), s.Current())
}

func TestSequencerAdvance(t *testing.T) {
	s := New(0)
	s.Advance(40)
	assert.Equal(t, uint64(40), s.Current())
	s.Advance(5)
	assert.Equal(t, uint64(40), s.Current())
	assert.Equal(t, uint64(41), s.Next())
}

func TestSequencerConcurrentUnique(t *testing.T) {
	s := New(0)
	var mu sync.Mutex
	seen := map[uint64]bool{}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				v := s.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4000)
	assert.Equal(t, uint64(4000), s.Current())
}
