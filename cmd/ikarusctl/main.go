package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	fx "github.com/ikarus-fc/ikarus.go/pkg/framework"
	"github.com/ikarus-fc/ikarus.go/pkg/host/bridge/mqtt"
	"github.com/ikarus-fc/ikarus.go/pkg/host/bridge/websocket"
	"github.com/ikarus-fc/ikarus.go/pkg/host/env"
	"github.com/ikarus-fc/ikarus.go/pkg/host/link"
	"github.com/ikarus-fc/ikarus.go/pkg/host/sh"
	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

var (
	device  = "/dev/ttyUSB0"
	baud    = link.DefaultBaud
	mqttURL string
	wsAddr  string
)

func init() {
	if val := os.Getenv("IKARUS_SERIAL_PORT"); val != "" {
		device = val
	}
	flag.StringVar(&device, "device", device, "Serial device of the controller link.")
	flag.IntVar(&baud, "baud", baud, "Baud rate of the controller link.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL to publish telemetry, e.g. mqtt://localhost:1883/ikarus/.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Listen address for the websocket telemetry feed.")
	sh.SetupFlags()
}

func main() {
	flag.Parse()

	port, err := link.OpenSerial(link.SerialConfig{Device: device, Baud: baud})
	if err != nil {
		glog.Exitf("open %s: %v", device, err)
	}

	client := link.NewClient(port)
	shell := sh.New(client)

	taps := []chan<- wire.Sample{shell.Samples}

	ctx, cancel := context.WithCancel(context.Background())
	runner := fx.NewRunnerWith(ctx).HandleSignals()
	runner.Go(fx.NamedRun("link", client))

	if mqttURL != "" {
		pub, err := mqtt.NewPublisher(mqttURL, env.MachineID())
		if err != nil {
			glog.Exit(err)
		}
		feed := make(chan wire.Sample, 16)
		taps = append(taps, feed)
		runner.Go(fx.NamedRun("mqtt", fx.RunFunc(func(ctx context.Context) error {
			return pub.RunFeed(ctx, feed)
		})))
	}
	if wsAddr != "" {
		srv := websocket.NewServer(wsAddr)
		feed := make(chan wire.Sample, 16)
		taps = append(taps, feed)
		runner.Go(fx.NamedRun("ws", srv))
		runner.Go(fx.NamedRun("ws-feed", fx.RunFunc(func(ctx context.Context) error {
			return srv.RunFeed(ctx, feed)
		})))
	}

	runner.Go(fx.NamedRun("fanout", fx.RunFunc(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sample := <-client.Samples():
				for _, tap := range taps {
					select {
					case tap <- sample:
					default:
					}
				}
			}
		}
	})))

	// the shell leaving takes the whole process down
	runner.Go(fx.NamedRun("shell", fx.RunFunc(func(ctx context.Context) error {
		defer cancel()
		return shell.Run(ctx)
	})))
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
