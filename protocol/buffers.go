package protocol

import "sync/atomic"

// RingBuffer is a fixed-capacity circular byte queue for serial I/O.
//
// It is safe for exactly one producer and one consumer running concurrently
// (for example an RX interrupt handler and the foreground loop). Push is the
// only writer of head, Pop is the only writer of tail. One slot is always
// left free so that head == tail means empty without a separate count.
type RingBuffer struct {
	buf  []byte
	size uint32
	head atomic.Uint32 // next write position, producer-owned
	tail atomic.Uint32 // next read position, consumer-owned
}

// NewRingBuffer creates a RingBuffer with the specified number of slots.
// It holds at most capacity-1 bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		panic("ring buffer capacity must be at least 2")
	}
	return &RingBuffer{
		buf:  make([]byte, capacity),
		size: uint32(capacity),
	}
}

// Push appends b. It returns false and leaves the buffer unchanged if full.
func (r *RingBuffer) Push(b byte) bool {
	head := r.head.Load()
	next := (head + 1) % r.size
	if next == r.tail.Load() {
		// Buffer full
		return false
	}
	r.buf[head] = b
	// Publish the slot only after it is written
	r.head.Store(next)
	return true
}

// Pop removes and returns the oldest byte. ok is false if the buffer is empty.
func (r *RingBuffer) Pop() (b byte, ok bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		// Buffer empty
		return 0, false
	}
	b = r.buf[tail]
	r.tail.Store((tail + 1) % r.size)
	return b, true
}

// IsEmpty returns true if the buffer is empty
func (r *RingBuffer) IsEmpty() bool {
	return r.head.Load() == r.tail.Load()
}

// IsFull returns true if a Push would fail
func (r *RingBuffer) IsFull() bool {
	return (r.head.Load()+1)%r.size == r.tail.Load()
}

// Len returns the number of bytes available for reading
func (r *RingBuffer) Len() int {
	head, tail := r.head.Load(), r.tail.Load()
	if head >= tail {
		return int(head - tail)
	}
	return int(r.size - tail + head)
}

// Free returns the number of bytes available for writing
func (r *RingBuffer) Free() int {
	return int(r.size) - r.Len() - 1
}

// Cap returns the maximum number of bytes the buffer can hold
func (r *RingBuffer) Cap() int {
	return int(r.size) - 1
}
