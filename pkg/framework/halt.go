package framework

import (
	"context"
	"sync"
	"sync/atomic"
)

// Halt parks a task until an external reset, replacing the busy-wait
// an unrecoverable fault would otherwise spin in. Software never exits
// the halted state on its own; only Reset (hardware reset in the real
// system, the test harness here) releases the waiter. Reset re-arms
// the Halt, so a later fault parks again until the next reset.
type Halt struct {
	lock    sync.Mutex
	resetCh chan struct{}
	halted  atomic.Bool
}

// NewHalt creates a Halt.
func NewHalt() *Halt {
	return &Halt{resetCh: make(chan struct{})}
}

func (h *Halt) ch() chan struct{} {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.resetCh
}

// Wait blocks until Reset is invoked or the context is canceled.
func (h *Halt) Wait(ctx context.Context) error {
	h.halted.Store(true)
	defer h.halted.Store(false)
	select {
	case <-h.ch():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Halted reports whether a task is currently parked.
func (h *Halt) Halted() bool {
	return h.halted.Load()
}

// Reset releases the current waiters and arms for the next halt.
func (h *Halt) Reset() {
	h.lock.Lock()
	close(h.resetCh)
	h.resetCh = make(chan struct{})
	h.lock.Unlock()
}
