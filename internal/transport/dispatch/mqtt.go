// MQTT Sender: a paho client with connect-with-auto-reconnect setup,
// trimmed to publish-only since this core never subscribes on the
// provider-callback side.
package dispatch

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/utils"
)

// MQTTSender publishes envelopes to the topic named by a record's uri.
// One client connection is shared across every Send.
type MQTTSender struct {
	client mqtt.Client
	qos    byte
	log    *zap.Logger
}

// NewMQTTSender connects to brokerURI and returns a sender that publishes
// at qos.
func NewMQTTSender(brokerURI string, qos byte, log *zap.Logger) (*MQTTSender, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURI)
	opts.SetClientID("edgetwin-dispatch-" + utils.MustNewUUID())
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		if log != nil {
			log.Warn("mqtt sender connection lost", zap.Error(err))
		}
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt sender connect %s: %w", brokerURI, err)
	}
	return &MQTTSender{client: client, qos: qos, log: log}, nil
}

func (s *MQTTSender) Protocol() string { return "mqtt" }

func (s *MQTTSender) Send(_ context.Context, uri string, payload []byte) error {
	token := s.client.Publish(uri, s.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt sender publish %s: %w", uri, err)
	}
	return nil
}

func (s *MQTTSender) HealthCheck() HealthStatus {
	status := "UP"
	if !s.client.IsConnected() {
		status = "DOWN"
	}
	return HealthStatus{Status: status, Timestamp: time.Now()}
}

func (s *MQTTSender) Close() error {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	return nil
}
