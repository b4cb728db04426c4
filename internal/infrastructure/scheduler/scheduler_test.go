package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	name string
	fn   func(attempt int32) error

	calls int32
	done  chan struct{}
	once  sync.Once
}

func (t *countingTask) Name() string { return t.name }

func (t *countingTask) Run(ctx context.Context) error {
	n := atomic.AddInt32(&t.calls, 1)
	err := t.fn(n)
	if err == nil && t.done != nil {
		t.once.Do(func() { close(t.done) })
	}
	return err
}

func TestRunNowSucceedsFirstAttempt(t *testing.T) {
	p := NewPool(1, 3, time.Millisecond, time.Second, zerolog.Nop())
	task := &countingTask{name: "t", fn: func(int32) error { return nil }}

	require.NoError(t, p.RunNow(context.Background(), task))
	assert.EqualValues(t, 1, atomic.LoadInt32(&task.calls))
}

func TestRunNowRetriesUntilSuccess(t *testing.T) {
	p := NewPool(1, 3, time.Millisecond, time.Second, zerolog.Nop())
	task := &countingTask{name: "t", fn: func(attempt int32) error {
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	}}

	require.NoError(t, p.RunNow(context.Background(), task))
	assert.EqualValues(t, 3, atomic.LoadInt32(&task.calls))
}

func TestRunNowExhaustsAttemptBudget(t *testing.T) {
	p := NewPool(1, 3, time.Millisecond, time.Second, zerolog.Nop())
	task := &countingTask{name: "doomed", fn: func(int32) error { return errors.New("permanent") }}

	err := p.RunNow(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doomed failed after 3 attempts")
	assert.EqualValues(t, 3, atomic.LoadInt32(&task.calls))
}

func TestRunNowHonorsContextDuringBackoff(t *testing.T) {
	p := NewPool(1, 3, time.Hour, time.Second, zerolog.Nop())
	task := &countingTask{name: "t", fn: func(int32) error { return errors.New("transient") }}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.RunNow(ctx, task)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&task.calls))
}

func TestRunNowRecoversPanics(t *testing.T) {
	p := NewPool(1, 1, time.Millisecond, time.Second, zerolog.Nop())
	task := &countingTask{name: "bad", fn: func(int32) error { panic("boom") }}

	err := p.RunNow(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestEnqueueRetriesAsynchronously(t *testing.T) {
	p := NewPool(2, 3, 5*time.Millisecond, time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Shutdown()

	task := &countingTask{
		name: "t",
		done: make(chan struct{}),
		fn: func(attempt int32) error {
			if attempt < 2 {
				return errors.New("transient")
			}
			return nil
		},
	}
	p.Enqueue(task)

	select {
	case <-task.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&task.calls))
}

func TestEnqueueInDelaysExecution(t *testing.T) {
	p := NewPool(1, 1, time.Millisecond, time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Shutdown()

	task := &countingTask{name: "t", done: make(chan struct{}), fn: func(int32) error { return nil }}
	start := time.Now()
	p.EnqueueIn(30*time.Millisecond, task)

	select {
	case <-task.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	p := NewPool(1, 1, time.Millisecond, time.Second, zerolog.Nop())
	p.Start(context.Background())
	p.Shutdown()
	p.Shutdown()
}

// A delayed resubmit can fire after Shutdown with no workers left to drain
// the queue; it must drop instead of blocking forever.
func TestSubmitAfterShutdownDoesNotBlock(t *testing.T) {
	p := NewPool(1, 1, time.Millisecond, time.Second, zerolog.Nop())
	p.Start(context.Background())
	p.Shutdown()

	done := make(chan struct{})
	go func() {
		defer close(done)
		task := &countingTask{name: "late", fn: func(int32) error { return nil }}
		for i := 0; i < 2*cap(p.queue); i++ {
			p.Enqueue(task)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submit blocked after shutdown")
	}
}
