// Package link implements the host side of the controller protocol:
// command frames out, textual replies and telemetry frames in.
package link

import (
	"bufio"
	"container/list"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Result is the outcome of one command.
type Result struct {
	Text string
	Err  error
}

// ReplyError carries the ERR reason reported by the controller.
type ReplyError struct {
	Reason string
}

// Error implements error.
func (e *ReplyError) Error() string {
	return e.Reason
}

// Command is a pending command waiting for its reply line.
type Command struct {
	resultCh chan Result
	expireAt time.Time
	elem     *list.Element
}

// ResultChan returns the chan to retrieve the result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// DefaultExpiration bounds the wait for a reply line.
const DefaultExpiration = time.Second

// Client correlates replies to commands. The controller answers
// strictly in order, so correlation is FIFO; commands with no reply
// before expiration fail with DeadlineExceeded.
type Client struct {
	Expiration time.Duration

	rw       io.ReadWriter
	sendLock sync.Mutex

	lock    sync.Mutex
	pending list.List

	samples chan wire.Sample
}

// NewClient creates a Client over the controller link.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		Expiration: DefaultExpiration,
		rw:         rw,
		samples:    make(chan wire.Sample, 16),
	}
}

// Samples returns the telemetry stream. Samples are dropped when the
// consumer lags; only the freshest state matters.
func (c *Client) Samples() <-chan wire.Sample {
	return c.samples
}

// Do sends one command frame and registers it for reply correlation.
// The command is registered before the frame goes out so a reply racing
// the write still finds it pending.
func (c *Client) Do(t wire.MsgType, payload []byte) *Command {
	cmd := &Command{resultCh: make(chan Result, 1)}
	frame, err := wire.NewFrame(t, payload)
	if err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	c.lock.Lock()
	cmd.expireAt = time.Now().Add(c.Expiration)
	cmd.elem = c.pending.PushBack(cmd)
	c.lock.Unlock()
	if _, err := frame.WriteTo(c.rw); err != nil {
		c.lock.Lock()
		resolved := cmd.elem == nil
		if !resolved {
			c.pending.Remove(cmd.elem)
			cmd.elem = nil
		}
		c.lock.Unlock()
		if !resolved {
			cmd.resultCh <- Result{Err: err}
		}
	}
	return cmd
}

// Convenience wrappers for the command set.

// Arm sends an arm or disarm command.
func (c *Client) Arm(arm bool) *Command {
	var b byte
	if arm {
		b = 1
	}
	return c.Do(wire.MsgArming, wire.Arming{Arm: b}.Encode())
}

// SetThrust sends a 4-channel thrust setpoint.
func (c *Client) SetThrust(m1, m2, m3, m4 float32) *Command {
	return c.Do(wire.MsgThrust, wire.Thrust{M1: m1, M2: m2, M3: m3, M4: m4}.Encode())
}

// SetAxis sends a single-axis setpoint (MsgPitch, MsgRoll or MsgYaw).
func (c *Client) SetAxis(t wire.MsgType, v float32) *Command {
	return c.Do(t, wire.AxisSetpoint{Value: v}.Encode())
}

// SetMotor sends a single-motor setpoint, 1-based.
func (c *Client) SetMotor(n int, v float32) *Command {
	if n < 1 || n > 4 {
		cmd := &Command{resultCh: make(chan Result, 1)}
		cmd.resultCh <- Result{Err: fmt.Errorf("no motor %d", n)}
		return cmd
	}
	t := wire.MsgMotor1 + wire.MsgType(n-1)
	return c.Do(t, wire.SingleMotor{Value: v}.Encode())
}

// CalibrateMag triggers magnetometer calibration.
func (c *Client) CalibrateMag() *Command {
	return c.Do(wire.MsgCalibrateMag, nil)
}

// Special sends an opaque special command.
func (c *Client) Special(cmd uint16) *Command {
	return c.Do(wire.MsgSpecialCmd, wire.SpecialCmd{Command: cmd}.Encode())
}

// Run implements Runnable: it reads the inbound byte stream, splitting
// fixed-size telemetry frames from ASCII reply lines.
func (c *Client) Run(ctx context.Context) error {
	loop := func() error {
		br := bufio.NewReader(c.rw)
		var line []byte
		frame := make([]byte, wire.FrameSize)
		for {
			b, err := br.ReadByte()
			if err != nil {
				return err
			}
			if b == wire.StartByte && len(line) == 0 {
				frame[0] = b
				if _, err := io.ReadFull(br, frame[1:]); err != nil {
					return err
				}
				c.handleFrame(frame)
				continue
			}
			if b == '\n' {
				c.handleLine(strings.TrimRight(string(line), "\r"))
				line = line[:0]
				continue
			}
			line = append(line, b)
		}
	}
	if closer, ok := c.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, loop)
	}
	return fx.RunWithContext(ctx, loop)
}

func (c *Client) handleFrame(buf []byte) {
	var parser wire.Parser
	var pr wire.ParseResult
	for _, b := range buf {
		pr = parser.Parse(b)
	}
	if pr.Err != nil {
		glog.V(2).Infof("telemetry frame error: %v", pr.Err)
		return
	}
	if pr.Frame == nil || pr.Frame.Type != wire.MsgSampleUpdate {
		return
	}
	sample, err := wire.DecodeSample(pr.Frame.Payload)
	if err != nil {
		glog.V(2).Infof("telemetry payload error: %v", err)
		return
	}
	select {
	case c.samples <- sample:
	default:
	}
}

func (c *Client) handleLine(line string) {
	if line == "" {
		return
	}
	var result Result
	switch {
	case strings.HasPrefix(line, "OK:"):
		result.Text = strings.TrimSpace(line[3:])
	case strings.HasPrefix(line, "ERR:"):
		result.Err = &ReplyError{Reason: strings.TrimSpace(line[4:])}
	default:
		// boot banners and other chatter
		glog.V(1).Infof("controller: %s", line)
		return
	}
	if cmd := c.takeOldest(); cmd != nil {
		cmd.resultCh <- result
	}
}

func (c *Client) takeOldest() *Command {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.purgeExpiredLocked(time.Now())
	elem := c.pending.Front()
	if elem == nil {
		return nil
	}
	cmd := elem.Value.(*Command)
	c.pending.Remove(elem)
	cmd.elem = nil
	return cmd
}

func (c *Client) purgeExpiredLocked(now time.Time) {
	for c.pending.Len() > 0 {
		elem := c.pending.Front()
		cmd := elem.Value.(*Command)
		if cmd.expireAt.After(now) {
			return
		}
		c.pending.Remove(elem)
		cmd.elem = nil
		cmd.resultCh <- Result{Err: context.DeadlineExceeded}
	}
}
