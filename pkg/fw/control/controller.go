// Package control holds the controller state shared between the
// command dispatcher and the supervisor.
package control

import (
	"math"
	"sync/atomic"
)

// Special commands consumed opaquely by the controller.
const (
	Motor1Beep        uint16 = 1
	Motor2Beep        uint16 = 2
	Motor3Beep        uint16 = 3
	Motor4Beep        uint16 = 4
	Motor1ReverseSpin uint16 = 5
	Motor2ReverseSpin uint16 = 6
	Motor3ReverseSpin uint16 = 7
	Motor4ReverseSpin uint16 = 8
)

// Setpoints are the external control inputs.
type Setpoints struct {
	Pitch, Roll, Yaw float32
}

// Controller carries the armed flag, the axis setpoints and the opaque
// special command. Every field has exactly one writer (the dispatcher
// task) and one reader (the supervisor task); the atomics make the
// cross-task visibility explicit instead of relying on an unguarded
// struct.
type Controller struct {
	armed   atomic.Bool
	pitch   atomic.Uint32
	roll    atomic.Uint32
	yaw     atomic.Uint32
	special atomic.Uint32
}

// New creates a Controller.
func New() *Controller {
	return &Controller{}
}

// SetArmedStatus sets the armed flag.
func (c *Controller) SetArmedStatus(armed bool) {
	c.armed.Store(armed)
}

// ArmedStatus reads the armed flag.
func (c *Controller) ArmedStatus() bool {
	return c.armed.Load()
}

// SetPitch sets the pitch setpoint.
func (c *Controller) SetPitch(v float32) {
	c.pitch.Store(math.Float32bits(v))
}

// SetRoll sets the roll setpoint.
func (c *Controller) SetRoll(v float32) {
	c.roll.Store(math.Float32bits(v))
}

// SetYaw sets the yaw setpoint.
func (c *Controller) SetYaw(v float32) {
	c.yaw.Store(math.Float32bits(v))
}

// ControlInputs reads the current setpoints.
func (c *Controller) ControlInputs() Setpoints {
	return Setpoints{
		Pitch: math.Float32frombits(c.pitch.Load()),
		Roll:  math.Float32frombits(c.roll.Load()),
		Yaw:   math.Float32frombits(c.yaw.Load()),
	}
}

// SetSpecialCommand stores the opaque command value.
func (c *Controller) SetSpecialCommand(cmd uint16) {
	c.special.Store(uint32(cmd))
}

// SpecialCommand reads the opaque command value.
func (c *Controller) SpecialCommand() uint16 {
	return uint16(c.special.Load())
}
