// Package mqtt publishes controller telemetry to an MQTT broker for
// dashboards and recorders.
package mqtt

import (
	"net/url"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// Queue wraps the MQTT client.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
}

// ClientOptionsFromURL creates ClientOptions from a broker URL of the
// form mqtt://host:port/topic-prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewQueueFromURL creates a Queue from a broker URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:      paho.NewClient(opts),
		TopicPrefix: topicPrefix,
	}, nil
}

// Connect connects the client and waits for the result.
func (q *Queue) Connect() error {
	token := q.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(0)
	return nil
}

// Pub publishes one message under the topic prefix.
func (q *Queue) Pub(topic string, payload []byte) error {
	token := q.Client.Publish(q.TopicPrefix+topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

// Sub subscribes a topic under the topic prefix.
func (q *Queue) Sub(topic string, handler Handler) error {
	token := q.Client.Subscribe(q.TopicPrefix+topic, 0,
		func(_ paho.Client, msg paho.Message) {
			handler(msg.Topic(), msg.Payload())
		})
	token.Wait()
	return token.Error()
}
