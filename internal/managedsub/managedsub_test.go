package managedsub

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgetwin/runtime/internal/intercept"
	"github.com/edgetwin/runtime/internal/model"
)

type stubBroker struct {
	mu      sync.Mutex
	created int
	deleted []string
}

func (b *stubBroker) CreateTopic(_ context.Context) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	return "topic-1", "mqtt://broker:1883", nil
}

func (b *stubBroker) DeleteTopic(_ context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, topic)
	return nil
}

type stubNotifier struct {
	mu       sync.Mutex
	payloads []string
}

func (n *stubNotifier) Notify(_ context.Context, _, _, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

func mustOps(t *testing.T, tags ...string) model.OperationSet {
	t.Helper()
	ops, err := model.ParseOperations(tags)
	require.NoError(t, err)
	return ops
}

func TestRewriteOnRegister_S6(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)

	rec := model.Record{
		ProviderID: "p1", InstanceID: "i1", ModelID: "m1", Protocol: "grpc",
		URI: "provider_cb", Operations: mustOps(t, "ManagedSubscribe"),
	}
	call, sc, err := bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})
	require.NoError(t, err)
	assert.Nil(t, sc)

	rewritten := call.Request.([]model.Record)
	require.Len(t, rewritten, 1)
	assert.Equal(t, "bridge://managed-subscribe", rewritten[0].URI)
	assert.Equal(t, "GetSubscriptionInfo", rewritten[0].Context)
	assert.Equal(t, "p1", rewritten[0].ProviderID) // other fields unchanged

	cb, ok := bridge.CallbackURI(rec.Key())
	require.True(t, ok)
	assert.Equal(t, "provider_cb", cb)
}

func TestRewriteIsIdempotent(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)
	rec := model.Record{
		ProviderID: "p1", InstanceID: "i1", ModelID: "m1", Protocol: "grpc",
		URI: "provider_cb", Operations: mustOps(t, "ManagedSubscribe"),
	}

	call1, _, _ := bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})
	call2, _, _ := bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})

	r1 := call1.Request.([]model.Record)[0]
	r2 := call2.Request.([]model.Record)[0]
	assert.Equal(t, r1.URI, r2.URI)
	assert.Equal(t, r1.Context, r2.Context)
}

func TestNonManagedSubscribeRecordsPassThrough(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)
	rec := model.Record{ProviderID: "p1", InstanceID: "i1", ModelID: "m1", URI: "direct", Operations: mustOps(t, "Get")}

	call, _, _ := bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})
	out := call.Request.([]model.Record)[0]
	assert.Equal(t, "direct", out.URI)
}

func TestNonRegisterCallsPassThrough(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)
	call, sc, err := bridge.OnRequest(context.Background(), intercept.Call{Name: "FindById", Request: "i1"})
	require.NoError(t, err)
	assert.Nil(t, sc)
	assert.Equal(t, "i1", call.Request)
}

func TestGetSubscriptionInfoProvisionsAndNotifiesPublish(t *testing.T) {
	broker := &stubBroker{}
	notifier := &stubNotifier{}
	bridge := New("bridge://managed-subscribe", broker, notifier, nil, true)
	rec := model.Record{ProviderID: "p1", InstanceID: "i1", ModelID: "m1", Protocol: "grpc", URI: "provider_cb", Operations: mustOps(t, "ManagedSubscribe")}
	_, _, _ = bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})

	topic, endpoint, err := bridge.GetSubscriptionInfo(context.Background(), "i1", "rate=1hz")
	require.NoError(t, err)
	assert.Equal(t, "topic-1", topic)
	assert.Equal(t, "mqtt://broker:1883", endpoint)
	assert.Equal(t, 1, broker.created)
	require.Len(t, notifier.payloads, 1)
	assert.Contains(t, notifier.payloads[0], `"instruction":"PUBLISH"`)
}

func TestGetSubscriptionInfoDedupesSameTuple(t *testing.T) {
	broker := &stubBroker{}
	bridge := New("bridge://managed-subscribe", broker, &stubNotifier{}, nil, true)
	rec := model.Record{ProviderID: "p1", InstanceID: "i1", ModelID: "m1", Protocol: "grpc", URI: "provider_cb", Operations: mustOps(t, "ManagedSubscribe")}
	_, _, _ = bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})

	t1, _, err := bridge.GetSubscriptionInfo(context.Background(), "i1", "rate=1hz")
	require.NoError(t, err)
	t2, _, err := bridge.GetSubscriptionInfo(context.Background(), "i1", "rate=1hz")
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.Equal(t, 1, broker.created)
}

func TestOnZeroSubscribersSendsStopPublishAndReleases(t *testing.T) {
	broker := &stubBroker{}
	notifier := &stubNotifier{}
	bridge := New("bridge://managed-subscribe", broker, notifier, nil, true)
	rec := model.Record{ProviderID: "p1", InstanceID: "i1", ModelID: "m1", Protocol: "grpc", URI: "provider_cb", Operations: mustOps(t, "ManagedSubscribe")}
	_, _, _ = bridge.OnRequest(context.Background(), intercept.Call{Name: "Register", Request: []model.Record{rec}})

	topic, _, err := bridge.GetSubscriptionInfo(context.Background(), "i1", "rate=1hz")
	require.NoError(t, err)

	bridge.OnZeroSubscribers(topic)

	require.Len(t, notifier.payloads, 2)
	assert.Contains(t, notifier.payloads[1], `"instruction":"STOP_PUBLISH"`)
	require.Len(t, broker.deleted, 1)
	assert.Equal(t, topic, broker.deleted[0])

	// A second GetSubscriptionInfo call for the same tuple after release
	// provisions a fresh topic rather than reusing the released one.
	_, _, err = bridge.GetSubscriptionInfo(context.Background(), "i1", "rate=1hz")
	require.NoError(t, err)
	assert.Equal(t, 2, broker.created)
}

func TestOnZeroSubscribersIgnoresUnknownTopic(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)
	bridge.OnZeroSubscribers("never-issued")
}

func TestGetSubscriptionInfoErrorsWithoutRegisteredCallback(t *testing.T) {
	bridge := New("bridge://managed-subscribe", &stubBroker{}, &stubNotifier{}, nil, true)
	_, _, err := bridge.GetSubscriptionInfo(context.Background(), "unknown", "")
	require.Error(t, err)
}
