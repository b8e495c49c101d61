// Package rpc implements the Async RPC Correlation layer: the Ask/Answer
// pairing that bridges the asynchronous provider contract to a
// synchronous consumer-facing call. An unbounded map of in-flight
// single-shot reply slots, keyed by ask id, is handed out and reclaimed
// under a single lock.
package rpc

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/errors"
	"github.com/edgetwin/runtime/pkg/metrics"
	"github.com/edgetwin/runtime/pkg/utils"
)

var tracer = otel.Tracer("github.com/edgetwin/runtime/internal/rpc")

// Dispatcher sends an Ask to a provider endpoint over its declared
// protocol. Implementations live in internal/transport/dispatch; Dispatch
// must return promptly (it reports only synchronous, transport-level
// failure) and must not block waiting for the Answer.
type Dispatcher interface {
	Dispatch(ctx context.Context, protocol, uri string, askID, replyToURI string, payload string) error
}

// inFlight is one outstanding asynchronous call: a single-shot reply slot
// filled at most once, by Answer; the deadline/cancellation path evicts
// the entry instead of filling it.
type inFlight struct {
	done    chan struct{}
	once    sync.Once
	payload string
	err     error
}

func newInFlight() *inFlight {
	return &inFlight{done: make(chan struct{})}
}

// fill completes the slot exactly once; subsequent calls are no-ops, which
// is how duplicate Answers for a still-outstanding ask are discarded. A
// late Answer after eviction never reaches fill (see Answer).
func (f *inFlight) fill(payload string, err error) {
	f.once.Do(func() {
		f.payload = payload
		f.err = err
		close(f.done)
	})
}

// Correlator owns the in-flight ask map and the provider Dispatcher. All
// shared state is constructed once and passed explicitly to callers rather
// than held behind a package-level singleton.
type Correlator struct {
	mu        sync.Mutex
	inflight  map[string]*inFlight
	dispatch  Dispatcher
	log       *zap.Logger
	replyToFn func(askID string) string
}

// New constructs a Correlator. replyToURI builds the reply-to URI embedded
// in each Ask, given the ask id; the reference transport's Answer route
// carries the ask id in its path, so callers typically embed askID in the
// returned URI. A nil replyToURI uses the bare ask id.
func New(dispatch Dispatcher, log *zap.Logger, replyToURI func(askID string) string) *Correlator {
	return &Correlator{
		inflight:  make(map[string]*inFlight),
		dispatch:  dispatch,
		log:       log,
		replyToFn: replyToURI,
	}
}

// Call allocates an ask id, dispatches, and suspends until answered,
// timed out, or the dispatch itself fails.
func (c *Correlator) Call(ctx context.Context, protocol, providerID, uri, payload string, timeout time.Duration) (string, error) {
	askID, err := utils.NewUUID()
	if err != nil {
		return "", errors.Wrap(errors.ErrInternal, "failed to allocate ask id")
	}

	ctx, span := tracer.Start(ctx, "rpc.Call",
		trace.WithAttributes(
			attribute.String("ask_id", askID),
			attribute.String("provider_id", providerID),
		),
	)
	defer span.End()

	slot := newInFlight()
	c.mu.Lock()
	if _, exists := c.inflight[askID]; exists {
		c.mu.Unlock()
		// Ask ids are allocated fresh per call (UUIDv7); a collision
		// indicates a generator bug, not a recoverable condition.
		return "", errors.Wrap(errors.ErrInternal, "duplicate in-flight ask id")
	}
	c.inflight[askID] = slot
	c.mu.Unlock()
	metrics.AsksInFlight.Inc()

	start := time.Now()
	defer func() {
		metrics.AsksInFlight.Dec()
		metrics.AskLatency.Observe(time.Since(start).Seconds())
	}()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	replyTo := askID
	if c.replyToFn != nil {
		replyTo = c.replyToFn(askID)
	}

	if err := c.dispatch.Dispatch(cctx, protocol, uri, askID, replyTo, payload); err != nil {
		c.evict(askID)
		metrics.AskOutcomes.WithLabelValues("transport_error").Inc()
		span.SetAttributes(attribute.String("outcome", "transport_error"))
		span.SetStatus(codes.Error, "dispatch failed")
		return "", errors.NewUnavailable(askID, providerID, err)
	}

	select {
	case <-slot.done:
		c.evict(askID)
		if slot.err != nil {
			metrics.AskOutcomes.WithLabelValues("timeout").Inc()
			span.SetAttributes(attribute.String("outcome", "timeout"))
			span.SetStatus(codes.Error, "timed out")
			return "", slot.err
		}
		metrics.AskOutcomes.WithLabelValues("answered").Inc()
		span.SetAttributes(attribute.String("outcome", "answered"))
		return slot.payload, nil
	case <-cctx.Done():
		c.evict(askID)
		metrics.AskOutcomes.WithLabelValues("timeout").Inc()
		span.SetAttributes(attribute.String("outcome", "timeout"))
		span.SetStatus(codes.Error, "deadline exceeded")
		return "", errors.NewUnavailable(askID, providerID, cctx.Err())
	}
}

// Answer fills the reply slot for askID, if one is outstanding. An answer
// for an unknown ask id is discarded, not an error — the caller may
// already have timed out or the ask id may simply never have existed.
func (c *Correlator) Answer(askID string, payload string) {
	c.mu.Lock()
	slot, ok := c.inflight[askID]
	c.mu.Unlock()
	if !ok {
		metrics.AskOutcomes.WithLabelValues("discarded_late_answer").Inc()
		if c.log != nil {
			c.log.Debug("discarding answer for unknown ask id", zap.String("ask_id", askID))
		}
		return
	}
	slot.fill(payload, nil)
}

// evict removes an ask id from the in-flight map, whether it terminated by
// answer, timeout, or cancellation.
func (c *Correlator) evict(askID string) {
	c.mu.Lock()
	delete(c.inflight, askID)
	c.mu.Unlock()
}

// InFlightCount reports the number of outstanding asks, for diagnostics
// and tests; the Prometheus gauge is updated independently at call sites.
func (c *Correlator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
