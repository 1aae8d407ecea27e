// Package queue provides the bounded FIFO that hands frame snapshots from the
// render loop to the storage workers.
package queue

import "sync"

// Queue is safe for concurrent use. With a positive limit it keeps only the
// newest items: pushing past the limit evicts from the front and counts the
// loss.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New returns an empty queue. limit <= 0 means unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit}
}

// Push appends items and reports how many were evicted to stay within the limit.
func (q *Queue[T]) Push(items ...T) (evicted int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, items...)
	if q.limit > 0 && len(q.items) > q.limit {
		evicted = len(q.items) - q.limit
		clear(q.items[:evicted])
		q.items = q.items[evicted:]
		q.dropped += uint64(evicted)
	}
	return evicted
}

func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	clear(q.items[:1])
	q.items = q.items[1:]
	return item, true
}

// Drain hands back everything queued and leaves the queue empty.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

// Dropped is the running total of evicted items.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
