package comm

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/golang/glog"
)

// Transmit pipeline limits.
const (
	TxSlotSize   = 128
	TxQueueDepth = 10
)

var (
	// ErrTooLarge indicates a message above the transmit slot size.
	ErrTooLarge = errors.New("message exceeds transmit slot")
	// ErrTxQueueFull indicates the bounded transmit queue is full.
	ErrTxQueueFull = errors.New("transmit queue full")
)

// TxPort starts one outgoing transfer. The port signals completion
// through the callback handed to it at construction; exactly one
// transfer is in flight at a time.
type TxPort interface {
	StartTransfer(data []byte) error
}

// Transmitter is the bounded transmit queue plus the single in-flight
// transfer discipline. Send and SendBinary never block; the consumer
// task serializes transfers against the port.
type Transmitter struct {
	port    TxPort
	queue   chan []byte
	done    chan struct{}
	dropped atomic.Uint32
}

// NewTransmitter creates a Transmitter for a port.
func NewTransmitter(port TxPort) *Transmitter {
	return &Transmitter{
		port:  port,
		queue: make(chan []byte, TxQueueDepth),
		done:  make(chan struct{}, 1),
	}
}

// NewWriterTransmitter wires a Transmitter to an io.Writer-backed port
// whose transfers complete synchronously.
func NewWriterTransmitter(w io.Writer) *Transmitter {
	t := NewTransmitter(nil)
	t.port = &writerPort{w: w, complete: t.TransferComplete}
	return t
}

type writerPort struct {
	w        io.Writer
	complete func()
}

func (p *writerPort) StartTransfer(data []byte) error {
	if _, err := p.w.Write(data); err != nil {
		return err
	}
	p.complete()
	return nil
}

// Send enqueues a textual reply.
func (t *Transmitter) Send(msg string) error {
	return t.SendBinary([]byte(msg))
}

// SendBinary enqueues raw bytes. Messages above the slot size are
// rejected, not truncated. When the queue is full the message is
// dropped and counted.
func (t *Transmitter) SendBinary(data []byte) error {
	if len(data) > TxSlotSize {
		return ErrTooLarge
	}
	slot := make([]byte, len(data))
	copy(slot, data)
	select {
	case t.queue <- slot:
		return nil
	default:
		n := t.dropped.Add(1)
		glog.V(2).Infof("transmit queue full, %d dropped", n)
		return ErrTxQueueFull
	}
}

// Dropped returns the count of messages lost to a full queue.
func (t *Transmitter) Dropped() uint32 {
	return t.dropped.Load()
}

// TransferComplete is the port completion callback. It wakes the
// consumer task so the next queued message is started.
func (t *Transmitter) TransferComplete() {
	select {
	case t.done <- struct{}{}:
	default:
	}
}

// Run implements Runnable: it drains the queue, keeping exactly one
// transfer in flight.
func (t *Transmitter) Run(ctx context.Context) error {
	for {
		var msg []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-t.queue:
		}
		if err := t.port.StartTransfer(msg); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
		}
	}
}
