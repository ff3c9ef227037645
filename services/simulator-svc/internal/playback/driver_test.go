package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pagesim/services/simulator-svc/internal/session"
	"pagesim/services/simulator-svc/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, d *Driver) {
	t.Helper()
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop")
	}
}

func TestDriver_PlaysSessionToEnd(t *testing.T) {
	result, err := trace.Build("LRU", []int{1, 2, 3, 1, 4}, 3)
	require.NoError(t, err)

	var mu sync.Mutex
	s := session.New()
	s.Run(result)
	require.True(t, s.Play())

	var ticks atomic.Int32
	var stopped atomic.Bool
	d := NewDriver(time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if !s.IsPlaying() {
			return false
		}
		s.StepForward()
		return s.IsPlaying()
	},
		WithTickHook(func(bool) { ticks.Add(1) }),
		WithStopHook(func() { stopped.Store(true) }),
	)

	require.True(t, d.Start(context.Background()))
	waitDone(t, d)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, s.Cursor())
	assert.False(t, s.IsPlaying())
	assert.Equal(t, int32(4), ticks.Load())
	assert.True(t, stopped.Load())
	assert.False(t, d.Running())
}

func TestDriver_Stop(t *testing.T) {
	var calls atomic.Int32
	d := NewDriver(time.Millisecond, func() bool {
		calls.Add(1)
		return true
	})

	require.True(t, d.Start(context.Background()))
	assert.False(t, d.Start(context.Background()), "already running")

	require.Eventually(t, func() bool { return calls.Load() > 2 }, time.Second, time.Millisecond)
	d.Stop()
	assert.False(t, d.Running())

	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	d.Stop()
}

func TestDriver_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDriver(time.Hour, func() bool { return true })

	require.True(t, d.Start(ctx))
	cancel()
	waitDone(t, d)
	assert.False(t, d.Running())
}

func TestDriver_SetInterval(t *testing.T) {
	d := NewDriver(time.Hour, func() bool { return true })
	assert.Equal(t, time.Hour, d.Interval())

	d.SetInterval(context.Background(), 0)
	assert.Equal(t, time.Hour, d.Interval())

	require.True(t, d.Start(context.Background()))
	first := d.Done()

	d.SetInterval(context.Background(), 2*time.Hour)
	assert.Equal(t, 2*time.Hour, d.Interval())
	assert.True(t, d.Running())

	select {
	case <-first:
	default:
		t.Fatal("previous loop should be stopped on restart")
	}
	d.Stop()
}

func TestDriver_RestartAfterNaturalEnd(t *testing.T) {
	var calls atomic.Int32
	d := NewDriver(time.Millisecond, func() bool {
		calls.Add(1)
		return false
	})

	require.True(t, d.Start(context.Background()))
	waitDone(t, d)
	require.True(t, d.Start(context.Background()))
	waitDone(t, d)

	assert.Equal(t, int32(2), calls.Load())
}
