// Package managedsub implements the Managed-Subscribe Interceptor: an
// instance of the Request Interception Layer that rewrites a provider's
// ManagedSubscribe registration to point at this in-process bridge, then
// brokers subscription setup/teardown through a Broker on the consumer's
// behalf. The provider-callback and topic bookkeeping tables are maps
// guarded by one mutex owned by the bridge, kept deliberately separate
// from the registry lock to prevent priority inversion under
// register-time rewriting.
package managedsub

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/edgetwin/runtime/internal/intercept"
	"github.com/edgetwin/runtime/internal/model"
	"github.com/edgetwin/runtime/pkg/metrics"
)

// Notifier delivers the fire-and-forget PUBLISH/STOP_PUBLISH instructions
// to a provider's callback endpoint, via the Notify variant of the
// Provider Request surface.
type Notifier interface {
	Notify(ctx context.Context, protocol, uri, payload string) error
}

// callbackEntry remembers where a ManagedSubscribe record's original URI
// pointed, keyed by (provider id, instance id, model id).
type callbackEntry struct {
	providerID  string
	instanceID  string
	modelID     string
	protocol    string
	callbackURI string
}

// topicEntry tracks one live PUBLISH, enforcing at most one live PUBLISH
// per unique (instance, constraints) tuple.
type topicEntry struct {
	instanceID     string
	constraints    string
	topic          string
	brokerEndpoint string
	callback       callbackEntry
}

// Bridge is the Managed-Subscribe bridge's interceptor and consumer-facing
// GetSubscriptionInfo surface.
type Bridge struct {
	bridgeURI string
	broker    Broker
	notifier  Notifier
	log       *zap.Logger
	enabled   bool

	mu          sync.Mutex
	callbacks   map[model.Key]callbackEntry
	topicsByKey map[string]topicEntry // keyed by instanceID + "\x00" + constraints
	topicOwner  map[string]string     // topic -> the instanceID+constraints key above
}

// New constructs a Bridge. bridgeURI is the address the interceptor
// rewrites ManagedSubscribe records to point at; enabled mirrors the
// managed_subscribe_enabled configuration flag.
func New(bridgeURI string, broker Broker, notifier Notifier, log *zap.Logger, enabled bool) *Bridge {
	return &Bridge{
		bridgeURI:   bridgeURI,
		broker:      broker,
		notifier:    notifier,
		log:         log,
		enabled:     enabled,
		callbacks:   make(map[model.Key]callbackEntry),
		topicsByKey: make(map[string]topicEntry),
		topicOwner:  make(map[string]string),
	}
}

// Name identifies this interceptor for pipeline diagnostics.
func (b *Bridge) Name() string { return "managed-subscribe" }

// Enabled reports whether the interceptor participates in the pipeline.
func (b *Bridge) Enabled() bool { return b.enabled }

// OnRequest inspects inbound Register calls, records the original
// provider callback for each record advertising ManagedSubscribe, then
// rewrites its URI to point at this bridge. Calls other than Register
// pass through untouched.
func (b *Bridge) OnRequest(_ context.Context, call intercept.Call) (intercept.Call, *intercept.ShortCircuit, error) {
	if call.Name != "Register" {
		return call, nil, nil
	}
	records, ok := call.Request.([]model.Record)
	if !ok {
		return call, nil, nil
	}

	rewritten := make([]model.Record, len(records))
	for i, rec := range records {
		if !rec.Operations.Has(model.OpManagedSubscribe) {
			rewritten[i] = rec
			continue
		}
		key := rec.Key()
		b.mu.Lock()
		b.callbacks[key] = callbackEntry{
			providerID:  rec.ProviderID,
			instanceID:  rec.InstanceID,
			modelID:     rec.ModelID,
			protocol:    rec.Protocol,
			callbackURI: rec.URI,
		}
		b.mu.Unlock()

		rewritten[i] = rec
		rewritten[i].URI = b.bridgeURI
		rewritten[i].Context = "GetSubscriptionInfo"
	}
	call.Request = rewritten
	return call, nil, nil
}

// OnResponse passes responses through untouched; the bridge only acts on
// the request path.
func (b *Bridge) OnResponse(_ context.Context, response interface{}) (interface{}, error) {
	return response, nil
}

// topicKey derives the dedup key for the at-most-one-live-PUBLISH
// invariant.
func topicKey(instanceID, constraints string) string {
	return instanceID + "\x00" + constraints
}

// GetSubscriptionInfo is the bridge's consumer-facing surface: obtain a
// topic, instruct the provider to publish to it, and return the topic and
// broker endpoint. Calling it twice for the same (instance, constraints)
// tuple returns the same live topic rather than provisioning a second one.
func (b *Bridge) GetSubscriptionInfo(ctx context.Context, instanceID, constraints string) (topic, brokerEndpoint string, err error) {
	dedupKey := topicKey(instanceID, constraints)

	b.mu.Lock()
	if existing, ok := b.topicsByKey[dedupKey]; ok {
		b.mu.Unlock()
		return existing.topic, existing.brokerEndpoint, nil
	}
	var cb callbackEntry
	found := false
	for _, c := range b.callbacks {
		if c.instanceID == instanceID {
			cb = c
			found = true
			break
		}
	}
	b.mu.Unlock()

	if !found {
		return "", "", fmt.Errorf("no managed-subscribe provider callback registered for instance %q", instanceID)
	}

	topic, brokerEndpoint, err = b.broker.CreateTopic(ctx)
	if err != nil {
		return "", "", fmt.Errorf("create topic: %w", err)
	}

	entry := topicEntry{instanceID: instanceID, constraints: constraints, topic: topic, brokerEndpoint: brokerEndpoint, callback: cb}
	b.mu.Lock()
	b.topicsByKey[dedupKey] = entry
	b.topicOwner[topic] = dedupKey
	count := len(b.topicsByKey)
	b.mu.Unlock()
	metrics.ManagedSubscribeTopics.Set(float64(count))

	payload := fmt.Sprintf(`{"instruction":"PUBLISH","instance_id":%q,"topic":%q,"constraints":%q,"broker_endpoint":%q}`,
		instanceID, topic, constraints, brokerEndpoint)
	if err := b.notifier.Notify(ctx, cb.protocol, cb.callbackURI, payload); err != nil && b.log != nil {
		b.log.Warn("managed-subscribe: PUBLISH notify failed",
			zap.String("instance_id", instanceID), zap.String("topic", topic), zap.Error(err))
	}

	return topic, brokerEndpoint, nil
}

// OnZeroSubscribers is the broker-driven callback invoked when a topic's
// subscriber count crosses zero: send STOP_PUBLISH to the owning provider
// callback and release the topic. Unknown topics are ignored; interceptor
// errors are logged and swallowed rather than propagated.
func (b *Bridge) OnZeroSubscribers(topic string) {
	b.mu.Lock()
	dedupKey, ok := b.topicOwner[topic]
	if !ok {
		b.mu.Unlock()
		return
	}
	entry := b.topicsByKey[dedupKey]
	delete(b.topicOwner, topic)
	delete(b.topicsByKey, dedupKey)
	count := len(b.topicsByKey)
	b.mu.Unlock()
	metrics.ManagedSubscribeTopics.Set(float64(count))

	payload := fmt.Sprintf(`{"instruction":"STOP_PUBLISH","instance_id":%q,"topic":%q}`, entry.instanceID, topic)
	ctx := context.Background()
	if err := b.notifier.Notify(ctx, entry.callback.protocol, entry.callback.callbackURI, payload); err != nil && b.log != nil {
		b.log.Warn("managed-subscribe: STOP_PUBLISH notify failed",
			zap.String("instance_id", entry.instanceID), zap.String("topic", topic), zap.Error(err))
	}

	if err := b.broker.DeleteTopic(ctx, topic); err != nil && b.log != nil {
		b.log.Warn("managed-subscribe: delete topic failed", zap.String("topic", topic), zap.Error(err))
	}
}

// CallbackURI returns the provider callback URI remembered for key, for
// tests asserting the interceptor's internal table.
func (b *Bridge) CallbackURI(key model.Key) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.callbacks[key]
	return entry.callbackURI, ok
}
