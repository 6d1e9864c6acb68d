package comm

import "sync/atomic"

// Ring is a single-producer/single-consumer byte ring. The producer is
// the receive pipeline (interrupt context in the real system), the
// consumer is the dispatcher task; no other goroutine may touch it.
// Head and tail are atomics so writes on one side are visible on the
// other without a lock.
type Ring struct {
	buf      []byte
	head     atomic.Uint32 // next write index, owned by producer
	tail     atomic.Uint32 // next read index, owned by consumer
	overflow atomic.Bool
}

// DefaultRingSize is the receive ring capacity.
const DefaultRingSize = 512

// NewRing creates a Ring. One slot is sacrificed to distinguish full
// from empty, so the usable capacity is size-1.
func NewRing(size int) *Ring {
	return &Ring{buf: make([]byte, size)}
}

// Put appends one byte. It returns false and sets the sticky overflow
// flag when the ring is full; the byte is dropped.
func (r *Ring) Put(b byte) bool {
	head := r.head.Load()
	next := (head + 1) % uint32(len(r.buf))
	if next == r.tail.Load() {
		r.overflow.Store(true)
		return false
	}
	r.buf[head] = b
	r.head.Store(next)
	return true
}

// Get removes the oldest byte. A successful read clears the overflow
// flag.
func (r *Ring) Get() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	b := r.buf[tail]
	r.tail.Store((tail + 1) % uint32(len(r.buf)))
	r.overflow.Store(false)
	return b, true
}

// Available returns the number of buffered bytes.
func (r *Ring) Available() int {
	head, tail := r.head.Load(), r.tail.Load()
	return int((head - tail + uint32(len(r.buf))) % uint32(len(r.buf)))
}

// Overflow reports whether a Put has been dropped since the last
// successful Get.
func (r *Ring) Overflow() bool {
	return r.overflow.Load()
}

// Reset empties the ring. Only safe while producer and consumer are
// stopped.
func (r *Ring) Reset() {
	r.head.Store(0)
	r.tail.Store(0)
	r.overflow.Store(false)
}
