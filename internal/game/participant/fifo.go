package participant

import (
	"context"
	"sync"
)

// fifo is an unbounded single-consumer queue. push never blocks.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{ready: make(chan struct{}, 1)}
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *fifo[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pop waits for the next item. Items queued before done closed are still
// returned; afterwards pop reports stopped.
func (q *fifo[T]) pop(ctx context.Context, done <-chan struct{}) (v T, ok bool, err error) {
	for {
		if v, ok := q.tryPop(); ok {
			return v, true, nil
		}
		select {
		case <-ctx.Done():
			return v, false, ctx.Err()
		case <-q.ready:
		case <-done:
			v, ok := q.tryPop()
			return v, ok, nil
		}
	}
}
