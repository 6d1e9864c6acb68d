package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/ikarus-fc/ikarus.go/pkg/wire"
)

// Publisher pushes telemetry samples to <prefix><device-id>/telemetry
// as JSON.
type Publisher struct {
	Queue    *Queue
	DeviceID string
}

// NewPublisher connects a Publisher to the broker.
func NewPublisher(brokerURL, deviceID string) (*Publisher, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.Connect(); err != nil {
		return nil, err
	}
	return &Publisher{Queue: q, DeviceID: deviceID}, nil
}

// Publish sends one sample.
func (p *Publisher) Publish(sample wire.Sample) error {
	payload, err := json.Marshal(sampleJSON(sample))
	if err != nil {
		return err
	}
	return p.Queue.Pub(p.DeviceID+"/telemetry", payload)
}

// RunFeed implements a Runnable draining a sample stream into the
// broker until the context is canceled.
func (p *Publisher) RunFeed(ctx context.Context, samples <-chan wire.Sample) error {
	defer p.Queue.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample := <-samples:
			if err := p.Publish(sample); err != nil {
				glog.Errorf("publish telemetry: %v", err)
			}
		}
	}
}

type telemetryJSON struct {
	Roll      float32 `json:"roll"`
	Pitch     float32 `json:"pitch"`
	Yaw       float32 `json:"yaw"`
	RollRate  float32 `json:"roll_rate"`
	PitchRate float32 `json:"pitch_rate"`
	YawRate   float32 `json:"yaw_rate"`
}

func sampleJSON(s wire.Sample) telemetryJSON {
	return telemetryJSON{
		Roll:      s.Roll,
		Pitch:     s.Pitch,
		Yaw:       s.Yaw,
		RollRate:  s.RollRate,
		PitchRate: s.PitchRate,
		YawRate:   s.YawRate,
	}
}
