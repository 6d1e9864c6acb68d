package comm

import (
	"context"
	"io"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
)

// DefaultScratchSize is the circular reception buffer size.
const DefaultScratchSize = 128

// Receiver converts continuously-running circular reception into
// byte-at-a-time availability. Hardware (or the RunPort adapter) writes
// into the fixed scratch buffer and reports its write position through
// OnIdle; the receiver copies the newly-arrived span into the ring and
// wakes the dispatcher.
type Receiver struct {
	scratch []byte
	pos     int
	ring    *Ring
	notify  chan struct{}
}

// NewReceiver creates a Receiver feeding the given ring.
func NewReceiver(ring *Ring, scratchSize int) *Receiver {
	return &Receiver{
		scratch: make([]byte, scratchSize),
		ring:    ring,
		notify:  make(chan struct{}, 1),
	}
}

// Scratch exposes the reception buffer for the port layer to fill.
func (r *Receiver) Scratch() []byte {
	return r.scratch
}

// Notify returns the dispatcher wake-up channel. Signals coalesce: a
// wake-up posted while one is already pending is dropped.
func (r *Receiver) Notify() <-chan struct{} {
	return r.notify
}

// OnIdle is the idle-line handler: pos is the current write position
// in the scratch buffer. The span since the last known position is
// copied into the ring, wrap-aware, and the dispatcher is woken.
// It never blocks; ring overflow silently drops bytes.
func (r *Receiver) OnIdle(pos int) {
	n := pos - r.pos
	if n < 0 {
		n += len(r.scratch)
	}
	for i := 0; i < n; i++ {
		r.ring.Put(r.scratch[(r.pos+i)%len(r.scratch)])
	}
	r.pos = pos
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// RunPort emulates the circular reception against a stream transport:
// it reads from rd into the scratch buffer, wrapping at the end, and
// reports each chunk through OnIdle. A read returning data plays the
// role of the idle-line interrupt. If rd is an io.Closer it is closed
// on cancellation to unblock the pending read.
func (r *Receiver) RunPort(ctx context.Context, rd io.Reader) error {
	loop := func() error {
		wr := r.pos
		for {
			end := len(r.scratch)
			if wr < r.pos {
				// do not overtake the unconsumed span
				end = r.pos
			}
			n, err := rd.Read(r.scratch[wr:end])
			if n > 0 {
				wr = (wr + n) % len(r.scratch)
				r.OnIdle(wr)
			}
			if err != nil {
				return err
			}
		}
	}
	if closer, ok := rd.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, loop)
	}
	return fx.RunWithContext(ctx, loop)
}
