package comm

import (
	"context"
	"errors"
	"fmt"
	"io"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/control"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/motors"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/sensors"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Config wires the communication manager to its collaborators. All
// references are injected here; nothing reaches the manager through
// package-level state.
type Config struct {
	Controller *control.Controller
	Motors     motors.Controller
	Mag        sensors.Magnetometer

	// Port carries both directions of the serial link.
	Port io.ReadWriter
}

// Manager owns the receive pipeline, the dispatcher and the transmit
// pipeline of the command/telemetry link.
type Manager struct {
	ring *Ring
	rx   *Receiver
	tx   *Transmitter
	disp *Dispatcher
	port io.ReadWriter
}

// NewManager creates the manager and binds the command table.
func NewManager(conf Config) (*Manager, error) {
	if conf.Controller == nil || conf.Motors == nil {
		return nil, errors.New("controller and motors are required")
	}
	m := &Manager{
		ring: NewRing(DefaultRingSize),
		port: conf.Port,
	}
	m.rx = NewReceiver(m.ring, DefaultScratchSize)
	m.tx = NewWriterTransmitter(conf.Port)
	m.disp = NewDispatcher(m.ring, m.rx.Notify(), m.tx)
	bindCommands(m.disp, conf)
	return m, nil
}

func bindCommands(d *Dispatcher, conf Config) {
	ctl, mot := conf.Controller, conf.Motors

	d.Handle(wire.MsgArming, func(p []byte) (string, error) {
		arming, err := wire.DecodeArming(p)
		if err != nil {
			return "", fmt.Errorf("invalid arming payload")
		}
		switch arming.Arm {
		case 1:
			ctl.SetArmedStatus(true)
			return "armed", nil
		case 0:
			mot.SetThrust(0, 0, 0, 0)
			ctl.SetArmedStatus(false)
			return "disarmed", nil
		}
		return "", fmt.Errorf("invalid arming value")
	})

	d.Handle(wire.MsgThrust, func(p []byte) (string, error) {
		thrust, err := wire.DecodeThrust(p)
		if err != nil {
			return "", fmt.Errorf("invalid thrust payload")
		}
		mot.SetThrust(thrust.M1, thrust.M2, thrust.M3, thrust.M4)
		return "thrust", nil
	})

	axis := func(t wire.MsgType, apply func(float32)) {
		d.Handle(t, func(p []byte) (string, error) {
			sp, err := wire.DecodeAxisSetpoint(p)
			if err != nil {
				return "", fmt.Errorf("invalid %v payload", t)
			}
			apply(sp.Value)
			return t.String(), nil
		})
	}
	axis(wire.MsgPitch, ctl.SetPitch)
	axis(wire.MsgRoll, ctl.SetRoll)
	axis(wire.MsgYaw, ctl.SetYaw)

	for i := 1; i <= motors.MotorCount; i++ {
		n := i
		t := wire.MsgMotor1 + wire.MsgType(i-1)
		d.Handle(t, func(p []byte) (string, error) {
			sp, err := wire.DecodeSingleMotor(p)
			if err != nil {
				return "", fmt.Errorf("invalid motor payload")
			}
			if err := mot.SetMotor(n, sp.Value); err != nil {
				return "", err
			}
			return t.String(), nil
		})
	}

	if mag := conf.Mag; mag != nil {
		d.Handle(wire.MsgCalibrateMag, func(p []byte) (string, error) {
			if err := mag.Calibrate(sensors.CalibrationSamples, sensors.CalibrationDelayMs); err != nil {
				return "", fmt.Errorf("mag calibration: %v", err)
			}
			return "mag calibrated", nil
		})
	}

	d.Handle(wire.MsgSpecialCmd, func(p []byte) (string, error) {
		cmd, err := wire.DecodeSpecialCmd(p)
		if err != nil {
			return "", fmt.Errorf("invalid special payload")
		}
		ctl.SetSpecialCommand(cmd.Command)
		return "special", nil
	})
}

// Send enqueues a textual message for the host.
func (m *Manager) Send(msg string) error {
	return m.tx.Send(msg)
}

// SendBinary enqueues raw bytes for the host.
func (m *Manager) SendBinary(data []byte) error {
	return m.tx.SendBinary(data)
}

// SendSample enqueues one telemetry frame.
func (m *Manager) SendSample(s wire.Sample) error {
	f, err := wire.NewFrame(wire.MsgSampleUpdate, s.Encode())
	if err != nil {
		return err
	}
	return m.tx.SendBinary(f.Bytes())
}

// Receiver exposes the receive pipeline for the port layer.
func (m *Manager) Receiver() *Receiver {
	return m.rx
}

// Dispatcher exposes the dispatcher for additional command bindings.
func (m *Manager) Dispatcher() *Dispatcher {
	return m.disp
}

// Run implements Runnable: it runs the receive, dispatch and transmit
// tasks until the context is canceled or the link fails.
func (m *Manager) Run(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := fx.NewRunnerWith(subCtx)
	runner.Go(
		fx.NamedRun("comm-rx", fx.RunFunc(func(c context.Context) error {
			defer cancel()
			return m.rx.RunPort(c, m.port)
		})),
		fx.NamedRun("comm-dispatch", m.disp),
		fx.NamedRun("comm-tx", m.tx),
	)
	return runner.Wait()
}
