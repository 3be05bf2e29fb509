package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Task is the handle for one connection's background pipeline work. It runs
// the supplied function in its own goroutine with a cancellable context.
// After Cancel, Wait returning context.Canceled is the normal settled
// outcome.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Run starts fn in a new goroutine. The function receives a context derived
// from parent that Cancel aborts; panics inside fn are converted to errors so
// a crashing pipeline never takes the process down.
func Run(parent context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				t.mu.Lock()
				t.err = fmt.Errorf("pipeline task panicked: %v", p)
				t.mu.Unlock()
			}
		}()

		err := fn(ctx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()

	return t
}

// Done reports whether the task has settled.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Cancel requests cancellation of the task's context. Safe to call multiple
// times and after completion.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task settles or ctx expires. It returns the task's
// own result when settled, or ctx.Err() when the wait itself timed out.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
