package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/comm"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/control"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/estimation"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/motors"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/sensors"
	"github.com/ikarus-fc/ikarus.go/pkg/fw/supervisor"
	"github.com/ikarus-fc/ikarus.go/pkg/host/link"
)

var (
	device = "/dev/ttyUSB0"
	baud   = link.DefaultBaud
)

func init() {
	if val := os.Getenv("IKARUS_SERIAL_PORT"); val != "" {
		device = val
	}
	flag.StringVar(&device, "device", device, "Serial device of the host link.")
	flag.IntVar(&baud, "baud", baud, "Baud rate of the host link.")
}

// dutyLog is the actuation backend: real duty generation (PWM, DShot)
// lives behind the motors.Output interface.
type dutyLog struct{}

func (dutyLog) SetDuty(channel int, value float32) {
	glog.V(3).Infof("motor %d duty %.3f", channel, value)
}

func main() {
	flag.Parse()

	port, err := link.OpenSerial(link.SerialConfig{Device: device, Baud: baud})
	if err != nil {
		glog.Exitf("open %s: %v", device, err)
	}

	ctl := control.New()
	quad := motors.NewQuad(dutyLog{})
	est := &estimation.Source{}

	mgr, err := comm.NewManager(comm.Config{
		Controller: ctl,
		Motors:     quad,
		Mag:        sensors.NullMagnetometer{},
		Port:       port,
	})
	if err != nil {
		glog.Exit(err)
	}

	sup := supervisor.New(supervisor.Config{
		Controller: ctl,
		Motors:     quad,
		Estimator:  est,
		Telemetry:  mgr,
	})

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("comm", mgr), fx.NamedRun("supervisor", sup))
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
