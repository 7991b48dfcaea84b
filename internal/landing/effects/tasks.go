// Package effects implements the decorative behaviour of the landing page:
// particles, scroll reveal, stat counters, parallax and hero animations.
// Effects mutate the page through the dom port and take time from a
// clockwork.Clock, so tests drive them with a fake clock.
package effects

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Tasks tracks the goroutines started by effects. Close cancels them and
// waits for them to return; Go after Close is refused.
type Tasks struct {
	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

func NewTasks(parent context.Context) *Tasks {
	ctx, cancel := context.WithCancel(parent)
	return &Tasks{ctx: ctx, cancel: cancel}
}

// Go runs fn in a new goroutine and reports whether it was started.
func (t *Tasks) Go(fn func(ctx context.Context)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.group.Go(func() error {
		fn(t.ctx)
		return nil
	})
	return true
}

func (t *Tasks) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
	_ = t.group.Wait()
}
