package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/ikarus-fc/ikarus.go/pkg/host/bridge/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/ikarus/"
)

func init() {
	if val := os.Getenv("IKARUS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	err = q.Sub("+/telemetry", mqtt.Handler(func(topic string, payload []byte) {
		var sample map[string]float64
		if err := json.Unmarshal(payload, &sample); err != nil {
			log.Printf("%s: bad sample: %v", topic, err)
			return
		}
		log.Printf("%s: roll %8.3f pitch %8.3f yaw %8.3f | rates %7.3f %7.3f %7.3f",
			topic,
			sample["roll"], sample["pitch"], sample["yaw"],
			sample["roll_rate"], sample["pitch_rate"], sample["yaw_rate"])
	}))
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
