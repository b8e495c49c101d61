// Package graph implements the Graph Facade: the consumer-facing API that
// translates Find/Get/Set/Invoke into registry lookups plus Asks. Find/Get/
// Set/Invoke each resolve one of several candidate records by metadata
// match (model id for Find, instance id for Get/Set/Invoke) and then
// dispatch through a Caller.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edgetwin/runtime/internal/model"
	"github.com/edgetwin/runtime/internal/registry"
	"github.com/edgetwin/runtime/internal/rpc"
	"github.com/edgetwin/runtime/pkg/errors"
	"github.com/edgetwin/runtime/pkg/graceful"
	twinjson "github.com/edgetwin/runtime/pkg/json"
	"github.com/edgetwin/runtime/pkg/metrics"
)

// Caller issues one Ask and waits for the paired Answer; *rpc.Correlator
// satisfies this.
type Caller interface {
	Call(ctx context.Context, protocol, providerID, uri, payload string, timeout time.Duration) (string, error)
}

// Facade implements Find, Get, Set, Invoke over a Registry and a Caller.
type Facade struct {
	reg        *registry.Registry
	caller     Caller
	log        *zap.Logger
	askTimeout time.Duration
}

// New constructs a Facade. askTimeout is the default per-Ask deadline.
func New(reg *registry.Registry, caller Caller, log *zap.Logger, askTimeout time.Duration) *Facade {
	return &Facade{reg: reg, caller: caller, log: log, askTimeout: askTimeout}
}

// FindResult is one entry in Find's aggregated result: either an answered
// payload or a diagnostic for a record that errored or timed out.
type FindResult struct {
	ProviderID string
	InstanceID string
	Payload    string
	Err        error
}

// Find queries the registry by model id, asks every matching record that
// advertises Get in parallel, and aggregates. Records that error or time
// out are omitted from the returned payloads but kept as diagnostics;
// a partial result set is returned rather than an error.
func (f *Facade) Find(ctx context.Context, modelID string) ([]string, []FindResult) {
	records := f.reg.FindByModelID(modelID)

	var wg sync.WaitGroup
	candidates := make([]model.Record, 0, len(records))
	for _, r := range records {
		if !r.Operations.Has(model.OpGet) {
			continue
		}
		candidates = append(candidates, r)
	}
	resCh := make(chan FindResult, len(candidates))

	for _, r := range candidates {
		wg.Add(1)
		go func(rec model.Record) {
			defer wg.Done()
			payload := fmt.Sprintf(`{"instance_id":%q,"operation":"Get","member_path":""}`, rec.InstanceID)
			out, err := f.caller.Call(ctx, rec.Protocol, rec.ProviderID, rec.URI, payload, f.askTimeout)
			resCh <- FindResult{ProviderID: rec.ProviderID, InstanceID: rec.InstanceID, Payload: out, Err: err}
		}(r)
	}
	wg.Wait()
	close(resCh)

	payloads := make([]string, 0, len(candidates))
	diagnostics := make([]FindResult, 0, len(candidates))
	for res := range resCh {
		if res.Err != nil {
			diagnostics = append(diagnostics, res)
			if f.log != nil {
				f.log.Warn("find: record errored or timed out",
					zap.String("provider_id", res.ProviderID),
					zap.String("instance_id", res.InstanceID),
					zap.Error(res.Err))
			}
			metrics.GraphOperations.WithLabelValues("find", "partial").Inc()
			continue
		}
		payloads = append(payloads, res.Payload)
	}
	if len(diagnostics) == 0 {
		metrics.GraphOperations.WithLabelValues("find", "answered").Inc()
	}
	return payloads, diagnostics
}

// Get resolves a Get ask against the record preferred for instanceID,
// returning the answer payload.
func (f *Facade) Get(ctx context.Context, instanceID, memberPath string) (string, error) {
	rec, ok := f.preferred(instanceID, model.OpGet)
	if !ok {
		metrics.GraphOperations.WithLabelValues("get", "notfound").Inc()
		return "", errors.ErrNotFound
	}
	payload := fmt.Sprintf(`{"instance_id":%q,"operation":"Get","member_path":%q}`, instanceID, memberPath)
	out, err := f.caller.Call(ctx, rec.Protocol, rec.ProviderID, rec.URI, payload, f.askTimeout)
	if err != nil {
		metrics.GraphOperations.WithLabelValues("get", "unavailable").Inc()
		askID, cause := errors.AskIDAndCause(err)
		result := graceful.LogAndWrapUnavailable(ctx, f.log, askID, rec.ProviderID, cause)
		return "", result.Err
	}
	metrics.GraphOperations.WithLabelValues("get", "answered").Inc()
	return out, nil
}

// Set resolves a Set ask against the record preferred for instanceID.
// Any non-empty answer is ignored: success is signaled by the absence of
// an error, not by the payload.
func (f *Facade) Set(ctx context.Context, instanceID, memberPath string, value interface{}) error {
	rec, ok := f.preferred(instanceID, model.OpSet)
	if !ok {
		metrics.GraphOperations.WithLabelValues("set", "notfound").Inc()
		return errors.ErrNotFound
	}
	valueJSON, err := twinjson.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.ErrInvalid, "value is not JSON-serializable")
	}
	payload := fmt.Sprintf(`{"instance_id":%q,"operation":"Set","member_path":%q,"payload":%s}`, instanceID, memberPath, valueJSON)
	_, err = f.caller.Call(ctx, rec.Protocol, rec.ProviderID, rec.URI, payload, f.askTimeout)
	if err != nil {
		metrics.GraphOperations.WithLabelValues("set", "unavailable").Inc()
		askID, cause := errors.AskIDAndCause(err)
		result := graceful.LogAndWrapUnavailable(ctx, f.log, askID, rec.ProviderID, cause)
		return result.Err
	}
	metrics.GraphOperations.WithLabelValues("set", "answered").Inc()
	return nil
}

// Invoke resolves an Invoke ask against the record preferred for
// instanceID, using commandName as the member path.
func (f *Facade) Invoke(ctx context.Context, instanceID, commandName string, requestPayload interface{}) (string, error) {
	rec, ok := f.preferred(instanceID, model.OpInvoke)
	if !ok {
		metrics.GraphOperations.WithLabelValues("invoke", "notfound").Inc()
		return "", errors.ErrNotFound
	}
	reqJSON, err := twinjson.Marshal(requestPayload)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalid, "request payload is not JSON-serializable")
	}
	payload := fmt.Sprintf(`{"instance_id":%q,"operation":"Invoke","member_path":%q,"payload":%s}`, instanceID, commandName, reqJSON)
	out, err := f.caller.Call(ctx, rec.Protocol, rec.ProviderID, rec.URI, payload, f.askTimeout)
	if err != nil {
		metrics.GraphOperations.WithLabelValues("invoke", "unavailable").Inc()
		askID, cause := errors.AskIDAndCause(err)
		result := graceful.LogAndWrapUnavailable(ctx, f.log, askID, rec.ProviderID, cause)
		return "", result.Err
	}
	metrics.GraphOperations.WithLabelValues("invoke", "answered").Inc()
	return out, nil
}

// preferred looks up instanceID and applies the tie-break for op.
func (f *Facade) preferred(instanceID string, op model.Operation) (model.Record, bool) {
	records := f.reg.FindByInstanceID(instanceID)
	return model.SelectPreferred(records, op)
}
