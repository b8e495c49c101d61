package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	protocol string
	sent     []string
	fail     error
	closed   bool
}

func (s *recordingSender) Protocol() string { return s.protocol }

func (s *recordingSender) Send(_ context.Context, uri string, payload []byte) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, uri+"|"+string(payload))
	return nil
}

func (s *recordingSender) HealthCheck() HealthStatus {
	return HealthStatus{Status: "UP", Timestamp: time.Now()}
}

func (s *recordingSender) Close() error {
	s.closed = true
	return nil
}

func TestRegistryGetMissingProtocol(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Get("grpc")
	assert.False(t, ok)
}

func TestRegistryRegisterAndReplace(t *testing.T) {
	reg := NewRegistry()
	first := &recordingSender{protocol: "mqtt"}
	second := &recordingSender{protocol: "mqtt"}
	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("mqtt")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryCloseClosesAllSenders(t *testing.T) {
	reg := NewRegistry()
	a := &recordingSender{protocol: "grpc"}
	b := &recordingSender{protocol: "websocket"}
	reg.Register(a)
	reg.Register(b)

	reg.Close()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRouterDispatchEncodesAskEnvelope(t *testing.T) {
	reg := NewRegistry()
	sender := &recordingSender{protocol: "mqtt"}
	reg.Register(sender)
	router := NewRouter(reg, nil)

	err := router.Dispatch(context.Background(), "mqtt", "devices/1/ask", "ask-1", "devices/1/reply", `{"cmd":"get"}`)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "devices/1/ask|")
	assert.Contains(t, sender.sent[0], `"ask_id":"ask-1"`)
	assert.Contains(t, sender.sent[0], `"reply_to":"devices/1/reply"`)
	assert.Contains(t, sender.sent[0], `"payload":{"cmd":"get"}`)
}

func TestRouterDispatchUnknownProtocolReturnsUnavailable(t *testing.T) {
	router := NewRouter(NewRegistry(), nil)
	err := router.Dispatch(context.Background(), "zigbee", "uri", "ask-1", "reply", "{}")
	require.Error(t, err)
}

func TestRouterDispatchPropagatesSenderError(t *testing.T) {
	reg := NewRegistry()
	sender := &recordingSender{protocol: "grpc", fail: assert.AnError}
	reg.Register(sender)
	router := NewRouter(reg, nil)

	err := router.Dispatch(context.Background(), "grpc", "uri", "ask-1", "reply", "{}")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRouterNotifyEncodesNotifyEnvelope(t *testing.T) {
	reg := NewRegistry()
	sender := &recordingSender{protocol: "mqtt"}
	reg.Register(sender)
	router := NewRouter(reg, nil)

	err := router.Notify(context.Background(), "mqtt", "devices/1/control", `{"instruction":"PUBLISH"}`)
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], `"payload":{"instruction":"PUBLISH"}`)
}

func TestStubSendersReportHealthyAndAcceptSend(t *testing.T) {
	for _, s := range []Sender{
		NewCANSender(nil),
		NewBLESender(nil),
	} {
		require.NoError(t, s.Send(context.Background(), "uri", []byte("payload")))
		assert.Equal(t, "UP", s.HealthCheck().Status)
		assert.NoError(t, s.Close())
	}
}
