// Package sh provides the ishell backed operator console for the
// controller link.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/host/link"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Shell provides the interactive console.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Client *link.Client

	// Samples feeds the monitor command; the owner of the telemetry
	// stream routes samples here.
	Samples chan wire.Sample
}

var (
	evalOnly   bool
	outputJSON bool
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a shell bound to a client.
func New(client *link.Client) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Client:      client,
		Samples:     make(chan wire.Sample, 16),
	}
	s.Shell.SetPrompt("ikarus> ")
	s.addCommands()
	return s
}

// Run implements Runnable: interactive loop, or one-shot evaluation of
// the remaining command line arguments.
func (s *Shell) Run(ctx context.Context) error {
	if !s.Interactive {
		return s.Shell.Process(flag.Args()...)
	}
	return fx.RunWithContextCancel(ctx, func() { s.Shell.Close() }, func() error {
		s.Shell.Run()
		return nil
	})
}

func (s *Shell) addCommands() {
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "arm",
		Help: "arm the controller (debounced before actuation enables)",
		Func: func(c *ishell.Context) {
			s.finish(c, s.Client.Arm(true))
		},
	})
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "disarm",
		Help: "disarm the controller and zero thrust",
		Func: func(c *ishell.Context) {
			s.finish(c, s.Client.Arm(false))
		},
	})
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "thrust",
		Help: "thrust m1 m2 m3 m4 (0..1)",
		Func: func(c *ishell.Context) {
			vals, err := floats(c.Args, 4)
			if err != nil {
				c.Err(err)
				return
			}
			s.finish(c, s.Client.SetThrust(vals[0], vals[1], vals[2], vals[3]))
		},
	})
	for _, axis := range []struct {
		name string
		t    wire.MsgType
	}{
		{"pitch", wire.MsgPitch},
		{"roll", wire.MsgRoll},
		{"yaw", wire.MsgYaw},
	} {
		axis := axis
		s.Shell.AddCmd(&ishell.Cmd{
			Name: axis.name,
			Help: axis.name + " <value>",
			Func: func(c *ishell.Context) {
				vals, err := floats(c.Args, 1)
				if err != nil {
					c.Err(err)
					return
				}
				s.finish(c, s.Client.SetAxis(axis.t, vals[0]))
			},
		})
	}
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "motor",
		Help: "motor <n> <value>: set one motor (1..4)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("expect motor number and value"))
				return
			}
			n, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			v, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(err)
				return
			}
			s.finish(c, s.Client.SetMotor(n, float32(v)))
		},
	})
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "special",
		Help: "special <code>: send an opaque special command",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("expect command code"))
				return
			}
			code, err := strconv.ParseUint(c.Args[0], 0, 16)
			if err != nil {
				c.Err(err)
				return
			}
			s.finish(c, s.Client.Special(uint16(code)))
		},
	})
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "calibrate",
		Help: "calibrate the magnetometer (blocking on the controller)",
		Func: func(c *ishell.Context) {
			s.finish(c, s.Client.CalibrateMag())
		},
	})
	s.Shell.AddCmd(&ishell.Cmd{
		Name: "monitor",
		Help: "monitor [count]: print telemetry samples (default 10)",
		Func: func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				count = n
			}
			for i := 0; i < count; i++ {
				select {
				case sample := <-s.Samples:
					s.printSample(c, sample)
				case <-time.After(5 * time.Second):
					c.Err(fmt.Errorf("no telemetry (is the controller running?)"))
					return
				}
			}
		},
	})
}

func (s *Shell) finish(c *ishell.Context, cmd *link.Command) {
	var result link.Result
	select {
	case result = <-cmd.ResultChan():
	case <-time.After(2 * link.DefaultExpiration):
		c.Err(fmt.Errorf("command timeout"))
		return
	}
	if result.Err != nil {
		c.Err(result.Err)
		return
	}
	if s.OutputJSON {
		out, _ := json.Marshal(map[string]string{"ok": result.Text})
		c.Println(string(out))
		return
	}
	c.Println("OK:", result.Text)
}

func (s *Shell) printSample(c *ishell.Context, sample wire.Sample) {
	if s.OutputJSON {
		out, _ := json.Marshal(sample)
		c.Println(string(out))
		return
	}
	c.Printf("roll %8.3f pitch %8.3f yaw %8.3f | rates %7.3f %7.3f %7.3f\n",
		sample.Roll, sample.Pitch, sample.Yaw,
		sample.RollRate, sample.PitchRate, sample.YawRate)
}

func floats(args []string, n int) ([]float32, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expect %d values", n)
	}
	vals := make([]float32, n)
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, err
		}
		vals[i] = float32(v)
	}
	return vals, nil
}
