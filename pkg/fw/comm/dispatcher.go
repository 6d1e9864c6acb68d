package comm

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Replier sends textual OK/ERR responses back to the host.
type Replier interface {
	Send(msg string) error
}

// Handler decodes and applies one command payload. On success it
// returns the action name echoed in the OK reply.
type Handler func(payload []byte) (string, error)

// Dispatcher drains the receive ring, reassembles frames and applies
// command handlers. All protocol errors are handled here and surfaced
// only as ERR replies; nothing propagates to the supervisor.
type Dispatcher struct {
	ring    *Ring
	notify  <-chan struct{}
	replier Replier
	parser  wire.Parser
	table   map[wire.MsgType]Handler
}

// NewDispatcher creates a Dispatcher consuming the receiver's ring.
func NewDispatcher(ring *Ring, notify <-chan struct{}, replier Replier) *Dispatcher {
	return &Dispatcher{
		ring:    ring,
		notify:  notify,
		replier: replier,
		table:   make(map[wire.MsgType]Handler),
	}
}

// Handle registers the handler for a message type. Registering handlers
// after Run has started is not allowed.
func (d *Dispatcher) Handle(t wire.MsgType, h Handler) {
	d.table[t] = h
}

// Run implements Runnable: it blocks on the receive-ready signal and
// drains buffered bytes.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.notify:
			d.Drain()
		}
	}
}

// Drain consumes all buffered bytes, dispatching completed frames.
func (d *Dispatcher) Drain() {
	for {
		b, ok := d.ring.Get()
		if !ok {
			return
		}
		pr := d.parser.Parse(b)
		if pr.Err != nil {
			d.reply(fmt.Sprintf("ERR: %v\n", pr.Err))
			continue
		}
		if pr.Frame != nil {
			d.Dispatch(pr.Frame)
		}
	}
}

// Dispatch applies one reassembled frame.
func (d *Dispatcher) Dispatch(f *wire.Frame) {
	h, ok := d.table[f.Type]
	if !ok {
		d.reply("ERR: unknown type\n")
		return
	}
	action, err := h(f.Payload)
	if err != nil {
		d.reply(fmt.Sprintf("ERR: %v\n", err))
		return
	}
	glog.V(4).Infof("dispatched %v", f.Type)
	d.reply(fmt.Sprintf("OK: %s\n", action))
}

func (d *Dispatcher) reply(msg string) {
	if err := d.replier.Send(msg); err != nil {
		glog.Errorf("reply error: %v", err)
	}
}
