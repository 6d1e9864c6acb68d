package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ikarus-fc/ikarus.go/pkg/fw/control"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/estimation"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/motors"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

type nullOutput struct{}

func (nullOutput) SetDuty(channel int, value float32) {}

type sampleRecorder struct {
	lock    sync.Mutex
	samples []wire.Sample
	ch      chan wire.Sample
}

func newSampleRecorder() *sampleRecorder {
	return &sampleRecorder{ch: make(chan wire.Sample, 64)}
}

func (r *sampleRecorder) SendSample(s wire.Sample) error {
	r.lock.Lock()
	r.samples = append(r.samples, s)
	r.lock.Unlock()
	select {
	case r.ch <- s:
	default:
	}
	return nil
}

func (r *sampleRecorder) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.samples)
}

type supervisorTestCtx struct {
	t      *testing.T
	ctl    *control.Controller
	quad   *motors.Quad
	est    *estimation.Source
	rec    *sampleRecorder
	fault  chan error
	sup    *Supervisor
	cancel context.CancelFunc
	errCh  chan error
}

func newSupervisorTestCtx(t *testing.T, debounce int) *supervisorTestCtx {
	tctx := &supervisorTestCtx{
		t:     t,
		ctl:   control.New(),
		quad:  motors.NewQuad(nullOutput{}),
		est:   &estimation.Source{},
		rec:   newSampleRecorder(),
		fault: make(chan error, 1),
		errCh: make(chan error, 1),
	}
	tctx.sup = New(Config{
		Controller:    tctx.ctl,
		Motors:        tctx.quad,
		Estimator:     tctx.est,
		Telemetry:     tctx.rec,
		Fault:         tctx.fault,
		Period:        time.Millisecond,
		DebounceCount: debounce,
		SampleEvery:   10,
	})
	ctx, cancel := context.WithCancel(context.Background())
	tctx.cancel = cancel
	go func() {
		tctx.errCh <- tctx.sup.Run(ctx)
	}()
	return tctx
}

func (c *supervisorTestCtx) stop() {
	c.cancel()
	select {
	case err := <-c.errCh:
		require.Equal(c.t, context.Canceled, err)
	case <-time.After(time.Second):
		c.t.Fatal("supervisor stop timeout")
	}
}

func (c *supervisorTestCtx) waitState(expected State) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.sup.State() == expected {
			return
		}
		time.Sleep(time.Millisecond)
	}
	c.t.Fatalf("expect state %v, still %v", expected, c.sup.State())
}

func TestSupervisorArmDebounce(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 20)
	defer tctx.stop()

	require.Equal(t, StateUnarmed, tctx.sup.State())
	tctx.ctl.SetArmedStatus(true)
	tctx.waitState(StateRunning)
}

func TestSupervisorArmAbort(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 1000)
	defer tctx.stop()

	tctx.ctl.SetArmedStatus(true)
	// drop the flag inside the debounce window
	time.Sleep(20 * time.Millisecond)
	tctx.ctl.SetArmedStatus(false)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateUnarmed, tctx.sup.State())
}

func TestSupervisorDisarmZeroesThrust(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 5)
	defer tctx.stop()

	tctx.ctl.SetArmedStatus(true)
	tctx.waitState(StateRunning)
	tctx.quad.SetThrust(0.5, 0.5, 0.5, 0.5)

	tctx.ctl.SetArmedStatus(false)
	tctx.waitState(StateUnarmed)
	require.Equal(t, [motors.MotorCount]float32{}, tctx.quad.Thrust())
}

func TestSupervisorTelemetryCadence(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 1)
	defer tctx.stop()

	tctx.est.SetState(estimation.State{Roll: 1, Pitch: 2, Yaw: 3})
	tctx.ctl.SetArmedStatus(true)
	tctx.waitState(StateRunning)

	select {
	case sample := <-tctx.rec.ch:
		require.Equal(t, wire.Sample{Roll: 1, Pitch: 2, Yaw: 3}, sample)
	case <-time.After(2 * time.Second):
		t.Fatal("expect telemetry timeout")
	}
}

func TestSupervisorSampleEveryTenth(t *testing.T) {
	ctl := control.New()
	ctl.SetArmedStatus(true)
	rec := newSampleRecorder()
	sup := New(Config{
		Controller: ctl,
		Motors:     motors.NewQuad(nullOutput{}),
		Estimator:  &estimation.Source{},
		Telemetry:  rec,
	})
	sup.setState(StateRunning)
	for i := 0; i < 3*DefaultSampleEvery; i++ {
		sup.stepRunning()
	}
	require.Equal(t, 3, rec.count())
}

func TestSupervisorNoTelemetryWhileUnarmed(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 5)
	defer tctx.stop()

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, tctx.rec.count())
}

func TestSupervisorFaultIsTerminal(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 1)
	defer tctx.stop()

	tctx.ctl.SetArmedStatus(true)
	tctx.waitState(StateRunning)
	tctx.quad.SetThrust(0.5, 0.5, 0.5, 0.5)

	tctx.fault <- errors.New("imu gone")
	tctx.waitState(StateError)
	require.Equal(t, [motors.MotorCount]float32{}, tctx.quad.Thrust())

	// arming has no effect in the terminal state
	tctx.ctl.SetArmedStatus(true)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateError, tctx.sup.State())
}

func (c *supervisorTestCtx) waitHalted() {
	deadline := time.Now().Add(2 * time.Second)
	for !c.sup.Halt().Halted() {
		if time.Now().After(deadline) {
			c.t.Fatal("expect halted timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSupervisorHaltReset(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 1)
	defer tctx.stop()

	tctx.fault <- errors.New("imu gone")
	tctx.waitState(StateError)
	tctx.waitHalted()

	tctx.ctl.SetArmedStatus(false)
	tctx.sup.Halt().Reset()
	tctx.waitState(StateUnarmed)
}

func TestSupervisorSecondFaultStaysTerminal(t *testing.T) {
	tctx := newSupervisorTestCtx(t, 1)
	defer tctx.stop()

	tctx.fault <- errors.New("imu gone")
	tctx.waitState(StateError)
	tctx.waitHalted()
	tctx.sup.Halt().Reset()
	tctx.waitState(StateUnarmed)

	// a fault after a reset parks again until the next reset
	tctx.fault <- errors.New("imu gone again")
	tctx.waitState(StateError)
	tctx.waitHalted()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateError, tctx.sup.State())
	require.True(t, tctx.sup.Halt().Halted())

	tctx.sup.Halt().Reset()
	tctx.waitState(StateUnarmed)
}
