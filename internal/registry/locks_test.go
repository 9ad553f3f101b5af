package registry

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TS01: Lock serializes access for the same source_id.
func TestSourceLocks_SameSource_Serializes(t *testing.T) {
	locks := NewSourceLocks()

	var active int32
	var sawOverlap bool
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("docs")
			defer unlock()
			if atomic.AddInt32(&active, 1) > 1 {
				sawOverlap = true
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.False(t, sawOverlap)
}

// TS02: Distinct source_ids do not contend with each other.
func TestSourceLocks_DifferentSources_RunConcurrently(t *testing.T) {
	locks := NewSourceLocks()

	start := time.Now()
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(sourceID string) {
			defer wg.Done()
			unlock := locks.Lock(sourceID)
			defer unlock()
			time.Sleep(20 * time.Millisecond)
		}(id)
	}
	wg.Wait()
	assert.Less(t, time.Since(start), 60*time.Millisecond)
}
