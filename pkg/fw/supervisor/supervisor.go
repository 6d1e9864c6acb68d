// Package supervisor implements the top-level arm/run state machine
// gating actuation and pacing telemetry.
package supervisor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/control"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/estimation"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/motors"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// State is the supervisory state.
type State int32

// States. Error is terminal: only an external reset leaves it.
const (
	StateError   State = -1
	StateUnarmed State = 0
	StateRunning State = 1
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateUnarmed:
		return "unarmed"
	case StateRunning:
		return "running"
	}
	return "unknown"
}

// Telemetry emits state samples to the host.
type Telemetry interface {
	SendSample(wire.Sample) error
}

// ControlLoop runs one control update: consume estimator state, compute
// and stage actuation. The algorithm behind it is an external
// collaborator.
type ControlLoop interface {
	Update()
}

// Defaults for the cyclic executive.
const (
	DefaultPeriod        = 25 * time.Millisecond
	DefaultDebounceCount = 160 // ~4s at the default period
	DefaultSampleEvery   = 10  // telemetry cadence in cycles
)

// Config assembles the supervisor's collaborators.
type Config struct {
	Controller *control.Controller
	Motors     motors.Controller
	Control    ControlLoop
	Estimator  estimation.Estimator
	Telemetry  Telemetry

	// Fault delivers unrecoverable faults from collaborators; any
	// receive drives the supervisor into the terminal Error state.
	Fault <-chan error

	Period        time.Duration
	DebounceCount int
	SampleEvery   int
}

// Supervisor is the cyclic task owning the firmware state.
type Supervisor struct {
	conf  Config
	halt  *fx.Halt
	state atomic.Int32

	samples int
}

// New creates a Supervisor, filling config defaults.
func New(conf Config) *Supervisor {
	if conf.Period == 0 {
		conf.Period = DefaultPeriod
	}
	if conf.DebounceCount == 0 {
		conf.DebounceCount = DefaultDebounceCount
	}
	if conf.SampleEvery == 0 {
		conf.SampleEvery = DefaultSampleEvery
	}
	return &Supervisor{conf: conf, halt: fx.NewHalt()}
}

// State reads the current supervisory state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Halt exposes the terminal-state primitive, used by the harness to
// model an external reset.
func (s *Supervisor) Halt() *fx.Halt {
	return s.halt
}

// Run implements Runnable: the fixed-period supervisory loop.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := s.sleep(ctx); err != nil {
			return err
		}
		switch s.State() {
		case StateUnarmed:
			if err := s.stepUnarmed(ctx); err != nil {
				return err
			}
		case StateRunning:
			s.stepRunning()
		case StateError:
			glog.Error("supervisor halted, awaiting external reset")
			if err := s.halt.Wait(ctx); err != nil {
				return err
			}
			// reset restarts from the ground state
			s.setState(StateUnarmed)
		}
	}
}

// sleep delays one period, watching for cancellation and faults.
func (s *Supervisor) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-s.fault():
		s.enterError(err)
		return nil
	case <-time.After(s.conf.Period):
		return nil
	}
}

func (s *Supervisor) fault() <-chan error {
	return s.conf.Fault
}

// stepUnarmed polls the armed flag and runs the debounce window: the
// flag must stay set for the whole window before actuation is enabled.
// Keep-alive output continues during the window.
func (s *Supervisor) stepUnarmed(ctx context.Context) error {
	if !s.conf.Controller.ArmedStatus() {
		return nil
	}
	for i := 0; i < s.conf.DebounceCount; i++ {
		if !s.conf.Controller.ArmedStatus() {
			glog.Info("arming aborted")
			return nil
		}
		s.conf.Motors.Update()
		if err := s.sleep(ctx); err != nil {
			return err
		}
		if s.State() == StateError {
			return nil
		}
	}
	glog.Info("armed, entering running state")
	s.samples = 0
	s.setState(StateRunning)
	return nil
}

// stepRunning runs one control cycle, or disarms when the flag has
// cleared.
func (s *Supervisor) stepRunning() {
	if !s.conf.Controller.ArmedStatus() {
		glog.Info("disarmed, zeroing thrust")
		s.conf.Motors.SetThrust(0, 0, 0, 0)
		s.setState(StateUnarmed)
		return
	}
	if s.conf.Control != nil {
		s.conf.Control.Update()
	}
	s.conf.Motors.Update()

	s.samples++
	if s.samples >= s.conf.SampleEvery {
		s.samples = 0
		s.emitSample()
	}
}

func (s *Supervisor) emitSample() {
	if s.conf.Estimator == nil || s.conf.Telemetry == nil {
		return
	}
	st := s.conf.Estimator.State()
	err := s.conf.Telemetry.SendSample(wire.Sample{
		Roll:      st.Roll,
		Pitch:     st.Pitch,
		Yaw:       st.Yaw,
		RollRate:  st.RollRate,
		PitchRate: st.PitchRate,
		YawRate:   st.YawRate,
	})
	if err != nil {
		glog.V(2).Infof("telemetry dropped: %v", err)
	}
}

func (s *Supervisor) enterError(err error) {
	glog.Errorf("unrecoverable fault: %v", err)
	s.conf.Motors.SetThrust(0, 0, 0, 0)
	s.conf.Motors.Update()
	s.setState(StateError)
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
}
