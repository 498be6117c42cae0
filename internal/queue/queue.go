// Package queue provides the concurrent FIFO buffer between publisher call
// sites and the single consumer draining batches for the wire.
package queue

import (
	"sync"
)

const defaultInitialCapacity = 64

// Queue is a thread-safe FIFO ring buffer. Many producers may Enqueue
// concurrently; a single consumer drains with DrainBatch. When a soft limit
// is set, the oldest item is dropped to make room for a new one: the stream
// carries periodic state snapshots, so the newest data wins.
type Queue[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	limit    int // soft cap, 0 = unbounded
	closed   bool

	// Stats
	totalEnqueued uint64
	totalDrained  uint64
	dropped       uint64
}

// New creates a queue with the given soft limit. A limit of 0 means
// unbounded.
func New[T any](limit int) *Queue[T] {
	capacity := defaultInitialCapacity
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	return &Queue[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
		limit:    limit,
	}
}

// Enqueue appends an item. Non-blocking: at the soft limit the oldest item
// is dropped first. Returns false if the queue is closed.
func (q *Queue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.limit > 0 && q.count >= q.limit {
		q.discardOldest()
	}
	if q.count == q.capacity {
		q.grow()
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	q.totalEnqueued++
	return true
}

// DrainBatch removes and returns up to max items in FIFO order. Returns nil
// when the queue is empty. Non-blocking.
func (q *Queue[T]) DrainBatch(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	n := q.count
	if max > 0 && max < n {
		n = max
	}

	batch := make([]T, n)
	for i := 0; i < n; i++ {
		batch[i] = q.buf[q.head]
		var zero T
		q.buf[q.head] = zero // release reference for GC
		q.head = (q.head + 1) % q.capacity
		q.count--
	}
	q.totalDrained += uint64(n)
	return batch
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Close marks the queue closed. Subsequent Enqueue calls return false;
// pending items remain drainable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Stats contains queue counters.
type Stats struct {
	Pending       int
	Capacity      int
	TotalEnqueued uint64
	TotalDrained  uint64
	Dropped       uint64
}

// Stats returns a snapshot of queue counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:       q.count,
		Capacity:      q.capacity,
		TotalEnqueued: q.totalEnqueued,
		TotalDrained:  q.totalDrained,
		Dropped:       q.dropped,
	}
}

// discardOldest drops the item at the head. Must be called with lock held.
func (q *Queue[T]) discardOldest() {
	var zero T
	q.buf[q.head] = zero
	q.head = (q.head + 1) % q.capacity
	q.count--
	q.dropped++
}

// grow doubles the buffer capacity. Must be called with lock held.
func (q *Queue[T]) grow() {
	newCapacity := q.capacity * 2
	newBuf := make([]T, newCapacity)

	if q.count > 0 {
		if q.head < q.tail {
			copy(newBuf, q.buf[q.head:q.tail])
		} else {
			n := copy(newBuf, q.buf[q.head:])
			copy(newBuf[n:], q.buf[:q.tail])
		}
	}

	q.buf = newBuf
	q.head = 0
	q.tail = q.count
	q.capacity = newCapacity
}
