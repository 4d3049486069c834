package notify

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO. Push never blocks; Take blocks until an item
// is available or the context is done.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends an item and wakes a waiting consumer.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

// Take returns the oldest item. ok is false once ctx is done, even if
// items remain; Drain collects those.
func (q *Queue[T]) Take(ctx context.Context) (item T, ok bool) {
	for {
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}
		if item, ok := q.TryTake(); ok {
			return item, true
		}
		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the oldest item without blocking.
func (q *Queue[T]) TryTake() (T, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}

	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	more := len(q.items) > 0
	q.mu.Unlock()

	// pass the wakeup on so another consumer does not sleep on a non-empty queue
	if more {
		q.signal()
	}
	return item, true
}

// Drain removes and returns everything currently queued.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len reports how many items are waiting.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
