package deadletter

import (
	"sync"
)

// RingBuffer is a bounded, thread-safe buffer of failure entries.
// When full, the oldest entries are dropped to make room for new ones.
type RingBuffer struct {
	mu       sync.Mutex
	entries  []Entry
	ids      map[string]struct{}
	head     int // next write position
	tail     int // oldest entry
	count    int
	capacity int

	dropped int64
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer{
		entries:  make([]Entry, capacity),
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an entry, dropping the oldest if necessary. An entry whose id
// is already buffered is ignored and Enqueue reports false.
func (b *RingBuffer) Enqueue(e Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.ids[e.ID]; ok {
		return false
	}
	if b.count >= b.capacity {
		delete(b.ids, b.entries[b.tail].ID)
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
	}

	b.entries[b.head] = e
	b.ids[e.ID] = struct{}{}
	b.head = (b.head + 1) % b.capacity
	b.count++
	return true
}

// Recent returns up to n entries, newest first, without removing them.
func (b *RingBuffer) Recent(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	result := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (b.head - 1 - i + b.capacity) % b.capacity
		result = append(result, b.entries[idx])
	}
	return result
}

// Len returns the current number of entries in the buffer.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of dropped entries.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
