// Package taskqueue defers work posted from background goroutines to the
// simulation goroutine, which runs it at the start of each tick.
package taskqueue

import "sync"

// Queue is a FIFO of closures. Post is safe from any goroutine; Drain must
// only be called from the simulation goroutine.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	spare   []func() // swapped with pending on drain to avoid reallocating
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		pending: make([]func(), 0, 8),
		spare:   make([]func(), 0, 8),
	}
}

// Post schedules fn to run on the next Drain.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs every task posted before the call, in order, and returns how
// many ran. Tasks posted while draining run on the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	tasks := q.pending
	q.pending = q.spare[:0]
	q.mu.Unlock()

	for i, fn := range tasks {
		fn()
		tasks[i] = nil
	}

	q.mu.Lock()
	q.spare = tasks[:0]
	q.mu.Unlock()
	return len(tasks)
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
