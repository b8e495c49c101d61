// Package graceful provides a thin result wrapper used at the Graph
// Facade boundary to attach diagnostics (ask id, provider id, timing) to
// unavailable or timed-out outcomes without leaking internal panics to
// callers. It carries no gRPC-status or protobuf-metadata plumbing, since
// this core has no wire transport of its own.
package graceful

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edgetwin/runtime/pkg/errors"
)

// Outcome classifies how a graph operation terminated, for logging and
// metrics labels.
type Outcome string

const (
	OutcomeTimedOut Outcome = "timedout"
)

// Result wraps either a successful payload or a classified error, carrying
// the diagnostics an Unavailable outcome must surface.
type Result struct {
	Outcome    Outcome
	Payload    string // self-describing JSON-like document, or "" on error
	AskID      string
	ProviderID string
	Err        error
}

// Error satisfies the error interface so a Result can be returned directly
// from code that expects a plain error, while still exposing its fields to
// callers that want the full diagnostics.
func (r *Result) Error() string {
	if r.Err == nil {
		return fmt.Sprintf("%s: ask=%s provider=%s", r.Outcome, r.AskID, r.ProviderID)
	}
	return fmt.Sprintf("%s: ask=%s provider=%s: %v", r.Outcome, r.AskID, r.ProviderID, r.Err)
}

func (r *Result) Unwrap() error { return r.Err }

// LogAndWrapUnavailable logs the failure with the injected logger and
// returns a Result classified Unavailable, attaching ask id and provider
// id diagnostics against this core's four-kind taxonomy instead of gRPC
// codes.
func LogAndWrapUnavailable(ctx context.Context, log *zap.Logger, askID, providerID string, cause error) *Result {
	if log != nil {
		log.Warn("ask unavailable",
			zap.String("ask_id", askID),
			zap.String("provider_id", providerID),
			zap.Error(cause),
		)
	}
	_ = ctx
	return &Result{
		Outcome:    OutcomeTimedOut,
		AskID:      askID,
		ProviderID: providerID,
		Err:        errors.NewUnavailable(askID, providerID, cause),
	}
}
