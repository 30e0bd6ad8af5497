package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	sched := NewManualScheduler()
	d := New(sched, 300*time.Millisecond)
	var calls []string

	d.Trigger(func() { calls = append(calls, "a") })
	sched.Advance(200 * time.Millisecond)
	d.Trigger(func() { calls = append(calls, "b") })
	sched.Advance(200 * time.Millisecond)
	require.Empty(t, calls, "each trigger restarts the delay")
	require.True(t, d.Pending())
	require.Equal(t, 1, sched.Pending())

	sched.Advance(100 * time.Millisecond)
	require.Equal(t, []string{"b"}, calls)
	require.False(t, d.Pending())
	require.Equal(t, 0, sched.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	sched := NewManualScheduler()
	d := New(sched, time.Second)
	fired := false
	d.Trigger(func() { fired = true })
	require.True(t, d.Cancel())
	require.False(t, d.Cancel())
	sched.Advance(time.Hour)
	require.False(t, fired)
}

func TestDebouncerZeroDelayRunsInline(t *testing.T) {
	d := New(NewManualScheduler(), 0)
	fired := false
	d.Trigger(func() { fired = true })
	require.True(t, fired)
	require.False(t, d.Pending())
}

func TestManualSchedulerOrdersByDeadline(t *testing.T) {
	sched := NewManualScheduler()
	var order []int
	sched.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	sched.AfterFunc(10*time.Millisecond, func() {
		order = append(order, 1)
		sched.AfterFunc(5*time.Millisecond, func() { order = append(order, 2) })
	})
	stopped := sched.AfterFunc(20*time.Millisecond, func() { order = append(order, 99) })
	require.True(t, stopped.Stop())
	require.False(t, stopped.Stop())

	sched.Advance(30 * time.Millisecond)
	require.Equal(t, []int{1, 2, 3}, order)
	require.Equal(t, 30*time.Millisecond, sched.Elapsed())
}

func TestDebouncerWithClock(t *testing.T) {
	d := New(nil, 5*time.Millisecond)
	var n atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			n.Add(1)
			close(done)
		})
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	require.Equal(t, int32(1), n.Load())
}
