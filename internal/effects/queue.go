// Package effects turns classified events into OBS scene changes.
//
// Events are handed from the log watcher to a Queue and drained by a single
// Dispatcher, which performs each effect to completion, delays included,
// before taking the next one.
package effects

import (
	"context"
	"sync"
	"time"

	"github.com/tf2obs/tf2obs-go/pkg/tf2log/event"
)

// Effect is one queued unit of presentation work.
type Effect struct {
	Event  event.Event
	Queued time.Time
}

// Queue is an unbounded FIFO of effects. Push never blocks; Pop blocks up
// to a timeout. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []Effect
	signal chan struct{}
	closed bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends e. It returns false once the queue is closed.
func (q *Queue) Push(e Effect) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if e.Queued.IsZero() {
		e.Queued = time.Now()
	}
	q.items = append(q.items, e)
	q.notify()
	return true
}

// notify wakes one waiting Pop. Must hold q.mu.
func (q *Queue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop removes the oldest effect, waiting up to timeout for one to arrive.
// It returns false on timeout, when ctx is done, or when the queue is
// closed and drained.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Effect, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items[0] = Effect{}
			q.items = q.items[1:]
			if len(q.items) > 0 && !q.closed {
				q.notify()
			}
			q.mu.Unlock()
			return e, true
		}
		if q.closed {
			q.mu.Unlock()
			return Effect{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-timer.C:
			return Effect{}, false
		case <-ctx.Done():
			return Effect{}, false
		}
	}
}

// Len returns the number of queued effects.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting effects. Queued effects can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
