package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StepAdvancesAfterNow(t *testing.T) {
	clock := NewManualClock(time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Now())
	assert.Equal(t, int64(3), clock.Calls())
}

func TestManualClock_FrozenAndAdvance(t *testing.T) {
	clock := NewManualClock(0)
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch, clock.Now())

	clock.Advance(time.Minute)
	assert.Equal(t, Epoch.Add(time.Minute), clock.Now())

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, int64(1), clock.Calls())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	const goroutines = 50
	const calls = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*calls), clock.Calls())
	assert.Equal(t, Epoch.Add(goroutines*calls*time.Millisecond), clock.Now())
}

func TestFixedRunID(t *testing.T) {
	gen := NewFixedRunID("run-123")
	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedRunID("").Generate())
}
