package lane

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_RunsAllTasks(t *testing.T) {
	p := NewPool("test", 4, testLogger())

	var count atomic.Int64
	for range 100 {
		require.NoError(t, p.Submit(func() { count.Add(1) }))
	}
	p.Close()

	assert.Equal(t, int64(100), count.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool("test", 3, testLogger())

	var running, peak atomic.Int64
	for range 30 {
		require.NoError(t, p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
		}))
	}
	p.Close()

	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Positive(t, peak.Load())
}

func TestPool_SubmitNeverBlocks(t *testing.T) {
	p := NewPool("test", 1, testLogger())

	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))

	done := make(chan struct{})
	go func() {
		for range 1000 {
			_ = p.Submit(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked behind a busy worker")
	}
	assert.Equal(t, 1000, p.Pending())

	close(release)
	p.Close()
	assert.Zero(t, p.Pending())
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool("test", 2, testLogger())
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Submit(func() {}), ErrClosed)
}

func TestPool_SurvivesPanic(t *testing.T) {
	p := NewPool("test", 1, testLogger())

	var ran atomic.Bool
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { ran.Store(true) }))
	p.Close()

	assert.True(t, ran.Load())
}

func TestSerial_FIFOAndOneAtATime(t *testing.T) {
	s := NewSerial("deliver", testLogger())

	var (
		mu     sync.Mutex
		order  []int
		active atomic.Int64
	)
	for i := range 50 {
		require.NoError(t, s.Deliver(func() {
			assert.Equal(t, int64(1), active.Add(1), "deliveries overlap")
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			active.Add(-1)
		}))
	}
	s.Close()

	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
	assert.ErrorIs(t, s.Deliver(func() {}), ErrClosed)
}

func TestDelivererFunc(t *testing.T) {
	var called bool
	d := DelivererFunc(func(fn func()) error {
		fn()
		return nil
	})

	require.NoError(t, d.Deliver(func() { called = true }))
	assert.True(t, called)
}
