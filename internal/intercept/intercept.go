// Package intercept implements the Request Interception Layer: a
// composable, ordered pipeline of per-call transformers that every inbound
// RPC passes through before reaching the service implementation, built as
// a chain-of-responsibility over named calls rather than raw protocol
// messages.
package intercept

import "context"

// Call is one inbound RPC, identified by name, carrying an arbitrary
// request value. Interceptors that don't recognize Name must return the
// call unchanged.
type Call struct {
	Name    string
	Request interface{}
}

// ShortCircuit, when returned by an Interceptor's OnRequest, stops the
// pipeline and is used directly as the response; the underlying service
// method is never invoked.
type ShortCircuit struct {
	Response interface{}
}

// Interceptor is one pipeline stage. Enabled is resolved once from static
// configuration at startup; Pipeline skips disabled interceptors entirely
// rather than calling into them.
type Interceptor interface {
	Name() string
	Enabled() bool
	OnRequest(ctx context.Context, call Call) (Call, *ShortCircuit, error)
	OnResponse(ctx context.Context, response interface{}) (interface{}, error)
}

// Pipeline runs a fixed, ordered list of interceptors: forward order on the
// request path, reverse order on the response path.
type Pipeline struct {
	stages []Interceptor
}

// NewPipeline builds a Pipeline from stages in configured order. Disabled
// stages are dropped at construction so the hot path never checks Enabled.
func NewPipeline(stages ...Interceptor) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		if s.Enabled() {
			p.stages = append(p.stages, s)
		}
	}
	return p
}

// HandleRequest runs call through every enabled interceptor in order. If
// any stage short-circuits, the remaining request-path stages are skipped
// and the short-circuit response is returned as-is (it still passes through
// OnResponse on the way back, in reverse order, starting from the stage
// that produced it).
func (p *Pipeline) HandleRequest(ctx context.Context, call Call) (Call, *ShortCircuit, error) {
	for i, stage := range p.stages {
		next, sc, err := stage.OnRequest(ctx, call)
		if err != nil {
			return call, nil, err
		}
		call = next
		if sc != nil {
			return call, &ShortCircuit{Response: p.runResponseFrom(ctx, i, sc.Response)}, nil
		}
	}
	return call, nil, nil
}

// HandleResponse runs response through every enabled interceptor in
// reverse order, the mirror image of HandleRequest.
func (p *Pipeline) HandleResponse(ctx context.Context, response interface{}) (interface{}, error) {
	return p.runResponseFrom(ctx, len(p.stages)-1, response)
}

// runResponseFrom runs response through stages [0, from] in reverse order,
// used both for the full response path and for a short-circuit produced
// mid-pipeline at index from.
func (p *Pipeline) runResponseFrom(ctx context.Context, from int, response interface{}) interface{} {
	for i := from; i >= 0; i-- {
		out, err := p.stages[i].OnResponse(ctx, response)
		if err != nil {
			// Interceptor errors on the response path are logged by the
			// stage itself and must not tear down the pipeline; the last
			// good response value is kept.
			continue
		}
		response = out
	}
	return response
}

// Stages returns the enabled stages in pipeline order, for diagnostics.
func (p *Pipeline) Stages() []Interceptor {
	return p.stages
}
