package sensors

import (
	"context"
	"math"
	"sync/atomic"
)

// Ranging constants: the free-running counter ticks at 1 MHz, sound
// travels ~58 ticks per centimeter of round trip.
const (
	TicksPerCm         = 58.0
	ProximityCm        = 10.0
	DefaultTimerPeriod = 0xFFFF
)

// ProximityIndicator is raised while an obstacle is inside the
// threshold distance (an LED in the real system).
type ProximityIndicator interface {
	Set(near bool)
}

// Ranger measures time-of-flight on the echo line. Edge runs in
// interrupt context and only latches counter values; conversion happens
// in the task woken through the flag channel.
type Ranger struct {
	period    uint32
	indicator ProximityIndicator

	echoStart uint32
	echoEnd   uint32
	measuring bool
	flag      chan struct{}

	pending  atomic.Uint32 // latched duration awaiting conversion
	distance atomic.Uint32 // float bits, cm
	near     atomic.Bool
}

// NewRanger creates a Ranger for a counter with the given period.
func NewRanger(period uint32, indicator ProximityIndicator) *Ranger {
	return &Ranger{
		period:    period,
		indicator: indicator,
		flag:      make(chan struct{}, 1),
	}
}

// Edge is the input-capture handler. rising latches the counter as the
// echo start; falling latches the end, queues the wrap-safe duration
// and wakes the conversion task. It never blocks.
func (r *Ranger) Edge(rising bool, counter uint32) {
	if rising {
		r.echoStart = counter
		r.measuring = true
		return
	}
	if !r.measuring {
		return
	}
	r.echoEnd = counter
	r.measuring = false
	r.pending.Store(wrapDuration(r.echoStart, r.echoEnd, r.period))
	select {
	case r.flag <- struct{}{}:
	default:
	}
}

// wrapDuration computes end-start on a counter that wraps at period.
func wrapDuration(start, end, period uint32) uint32 {
	if end >= start {
		return end - start
	}
	return (period + 1 - start) + end
}

// Run implements Runnable: it waits for latched measurements and
// converts them to a distance.
func (r *Ranger) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.flag:
			r.convert(r.pending.Load())
		}
	}
}

func (r *Ranger) convert(ticks uint32) {
	cm := float32(ticks) / TicksPerCm
	r.distance.Store(math.Float32bits(cm))
	near := cm <= ProximityCm
	if near != r.near.Swap(near) && r.indicator != nil {
		r.indicator.Set(near)
	}
}

// Distance returns the last measured distance in centimeters.
func (r *Ranger) Distance() float32 {
	return math.Float32frombits(r.distance.Load())
}

// Near reports whether the proximity indicator is raised.
func (r *Ranger) Near() bool {
	return r.near.Load()
}
