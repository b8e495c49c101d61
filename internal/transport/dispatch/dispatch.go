// Package dispatch implements the protocol-level "Sender" side of the
// Provider Request surface: framing an Ask or Notify envelope and handing
// it to the per-protocol transport that actually puts bytes on the wire.
// Each Sender is one implementation per protocol tag, looked up by name
// from a registry; it is a one-shot, fire-and-forget Send rather than a
// full duplex Connect/Send/Receive adapter, since Answers arrive on the
// correlator's own Answer surface rather than by polling a per-provider
// receive loop.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/errors"
	twinjson "github.com/edgetwin/runtime/pkg/json"
)

// HealthStatus carries per-sender health reporting.
type HealthStatus struct {
	Status    string
	Timestamp time.Time
}

// Sender puts one envelope on the wire for a single protocol. uri is the
// record's declared transport address; it is opaque to the router and
// interpreted only by the Sender registered for that protocol.
type Sender interface {
	Protocol() string
	Send(ctx context.Context, uri string, payload []byte) error
	HealthCheck() HealthStatus
	Close() error
}

// Registry maps protocol tags to Senders. Registration happens once at
// bootstrap; lookups happen on every dispatch, so reads never block other
// reads (same discipline as the registry core's RWMutex, scoped here to a
// much smaller, rarely-written table).
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

// NewRegistry constructs an empty sender registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register adds sender under its own Protocol() tag. Registering the same
// protocol twice replaces the previous sender rather than panicking.
// This registry is instance-owned, not a package-level singleton.
func (r *Registry) Register(sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[sender.Protocol()] = sender
}

// Get returns the sender registered for protocol, if any.
func (r *Registry) Get(protocol string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[protocol]
	return s, ok
}

// Close closes every registered sender, for graceful shutdown.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.senders {
		_ = s.Close()
	}
}

// askEnvelope is the wire shape of an Ask(reply-to uri, ask id, payload)
// call; payload is carried as a raw JSON value since it is itself a
// self-describing JSON-like document.
type askEnvelope struct {
	AskID   string          `json:"ask_id"`
	ReplyTo string          `json:"reply_to"`
	Payload twinjson.RawMessage `json:"payload"`
}

// notifyEnvelope is the wire shape of a fire-and-forget Notify call.
type notifyEnvelope struct {
	Payload twinjson.RawMessage `json:"payload"`
}

// Router dispatches Asks and Notifies by protocol tag. It implements both
// rpc.Dispatcher and managedsub.Notifier so the two correlation layers
// share one transport-selection path.
type Router struct {
	reg *Registry
	log *zap.Logger
}

// NewRouter constructs a Router over reg.
func NewRouter(reg *Registry, log *zap.Logger) *Router {
	return &Router{reg: reg, log: log}
}

// Dispatch implements rpc.Dispatcher: frame the Ask envelope and hand it
// to the protocol's Sender. It reports only synchronous, transport-level
// failure; the Answer arrives later, out of band, on the core's own
// Answer surface.
func (r *Router) Dispatch(ctx context.Context, protocol, uri string, askID, replyToURI string, payload string) error {
	sender, ok := r.reg.Get(protocol)
	if !ok {
		return errors.Wrap(errors.ErrUnavailable, fmt.Sprintf("no sender registered for protocol %q", protocol))
	}
	body, err := twinjson.Marshal(askEnvelope{AskID: askID, ReplyTo: replyToURI, Payload: twinjson.RawMessage(payload)})
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to encode ask envelope")
	}
	if err := sender.Send(ctx, uri, body); err != nil {
		if r.log != nil {
			r.log.Warn("ask dispatch failed", zap.String("protocol", protocol), zap.String("ask_id", askID), zap.Error(err))
		}
		return err
	}
	return nil
}

// Notify implements managedsub.Notifier: frame and send a fire-and-forget
// instruction. Callers still receive the error to decide whether to log,
// but nothing here retries or propagates it further up — interceptor
// errors are logged and swallowed, not allowed to tear down the pipeline.
func (r *Router) Notify(ctx context.Context, protocol, uri, payload string) error {
	sender, ok := r.reg.Get(protocol)
	if !ok {
		return errors.Wrap(errors.ErrUnavailable, fmt.Sprintf("no sender registered for protocol %q", protocol))
	}
	body, err := twinjson.Marshal(notifyEnvelope{Payload: twinjson.RawMessage(payload)})
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to encode notify envelope")
	}
	return sender.Send(ctx, uri, body)
}
