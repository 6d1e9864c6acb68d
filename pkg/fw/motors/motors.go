// Package motors applies thrust setpoints to the actuation output.
package motors

import (
	"fmt"
	"math"
	"sync/atomic"
)

// MotorCount is the number of actuation channels.
const MotorCount = 4

// Output is the low-level actuation target. The PWM/DShot encoding
// behind it is not part of this package.
type Output interface {
	SetDuty(channel int, value float32)
}

// Controller is the actuation interface consumed by the dispatcher and
// the supervisor.
type Controller interface {
	SetThrust(m1, m2, m3, m4 float32)
	SetMotor(n int, value float32) error
	// Update pushes the current setpoints to the output. The
	// supervisor calls it every cycle, including as keep-alive while
	// unarmed.
	Update()
}

// Quad drives four motors. Setpoints are written by the dispatcher task
// and read by the supervisor task, hence the atomics.
type Quad struct {
	out    Output
	thrust [MotorCount]atomic.Uint32
}

// NewQuad creates a Quad on an output.
func NewQuad(out Output) *Quad {
	return &Quad{out: out}
}

// SetThrust applies a 4-channel setpoint.
func (q *Quad) SetThrust(m1, m2, m3, m4 float32) {
	q.thrust[0].Store(math.Float32bits(clamp(m1)))
	q.thrust[1].Store(math.Float32bits(clamp(m2)))
	q.thrust[2].Store(math.Float32bits(clamp(m3)))
	q.thrust[3].Store(math.Float32bits(clamp(m4)))
}

// SetMotor applies a setpoint to one motor, 1-based.
func (q *Quad) SetMotor(n int, value float32) error {
	if n < 1 || n > MotorCount {
		return fmt.Errorf("no motor %d", n)
	}
	q.thrust[n-1].Store(math.Float32bits(clamp(value)))
	return nil
}

// Thrust reads the current setpoints.
func (q *Quad) Thrust() [MotorCount]float32 {
	var t [MotorCount]float32
	for i := range t {
		t[i] = math.Float32frombits(q.thrust[i].Load())
	}
	return t
}

// Update implements Controller.
func (q *Quad) Update() {
	for i := 0; i < MotorCount; i++ {
		q.out.SetDuty(i, math.Float32frombits(q.thrust[i].Load()))
	}
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
