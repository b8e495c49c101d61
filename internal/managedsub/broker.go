// Broker client backing the Managed-Subscribe bridge: a paho.mqtt.golang
// client with CreateTopic/DeleteTopic provisioning plus a
// zero-subscriber control-topic callback, in place of a generic
// Send/Receive adapter.
package managedsub

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/utils"
)

// Broker is the subset of a broker-backed pub/sub service the
// Managed-Subscribe bridge depends on. CreateTopic allocates a fresh topic
// and returns it along with the endpoint consumers should connect to;
// DeleteTopic releases one. The zero-subscriber notification path is
// wired at construction, not exposed here, since it is broker-driven
// rather than bridge-driven.
type Broker interface {
	CreateTopic(ctx context.Context) (topic string, brokerEndpoint string, err error)
	DeleteTopic(ctx context.Context, topic string) error
}

// ZeroSubscriberFunc is invoked when the broker reports that a topic's
// subscriber count has crossed zero.
type ZeroSubscriberFunc func(topic string)

// MQTTBroker implements Broker over an MQTT connection. Topic provisioning
// mints a fresh topic name without subscribing to it or contacting the
// broker; the broker is expected to publish subscriber-count
// transitions on controlTopic, which this client listens to and dispatches
// to onZero.
type MQTTBroker struct {
	client       mqtt.Client
	brokerURI    string
	controlTopic string
	log          *zap.Logger
	onZero       ZeroSubscriberFunc
}

// NewMQTTBroker connects to brokerURI and subscribes to controlTopic for
// zero-subscriber notifications. onZero is called (from the MQTT client's
// own goroutine) whenever the broker reports a topic crossing zero
// subscribers.
func NewMQTTBroker(ctx context.Context, brokerURI, controlTopic string, log *zap.Logger, onZero ZeroSubscriberFunc) (*MQTTBroker, error) {
	clientID := "edgetwin-managedsub-" + utils.MustNewUUID()
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURI)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		if log != nil {
			log.Warn("managed-subscribe broker connection lost", zap.Error(err))
		}
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("managed-subscribe broker connect: %w", err)
	}

	b := &MQTTBroker{client: client, brokerURI: brokerURI, controlTopic: controlTopic, log: log, onZero: onZero}

	subToken := client.Subscribe(controlTopic, 1, b.handleControlMessage)
	subToken.Wait()
	if err := subToken.Error(); err != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("managed-subscribe broker subscribe control topic: %w", err)
	}

	_ = ctx
	return b, nil
}

// handleControlMessage parses a zero-subscriber announcement. The control
// message payload is the bare topic name that just crossed zero
// subscribers; any other payload shape is ignored rather than treated as
// an error.
func (b *MQTTBroker) handleControlMessage(_ mqtt.Client, msg mqtt.Message) {
	topic := string(msg.Payload())
	if topic == "" {
		return
	}
	if b.onZero != nil {
		b.onZero(topic)
	}
}

// CreateTopic allocates a fresh topic name and returns it with the broker
// endpoint consumers should connect to.
func (b *MQTTBroker) CreateTopic(_ context.Context) (string, string, error) {
	topic := "twin/managed/" + utils.MustNewUUID()
	return topic, b.brokerURI, nil
}

// DeleteTopic releases a previously created topic. MQTT has no explicit
// topic-deletion primitive; releasing means the bridge stops tracking it
// and lets it become inactive once publishers and subscribers leave.
func (b *MQTTBroker) DeleteTopic(_ context.Context, topic string) error {
	if b.log != nil {
		b.log.Debug("releasing managed-subscribe topic", zap.String("topic", topic))
	}
	return nil
}

// Close disconnects the broker client.
func (b *MQTTBroker) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}
