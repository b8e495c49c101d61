// Package httpapi is the reference HTTP/JSON transport for the digital
// twin runtime: a concrete, swappable stand-in for the RPC surface the
// core's design deliberately leaves unscoped. Routes are grouped on a
// chi.Router, responses are application/json, and a shared writeError
// helper replaces panicking on bad input.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/internal/graph"
	"github.com/edgetwin/runtime/internal/intercept"
	"github.com/edgetwin/runtime/internal/managedsub"
	"github.com/edgetwin/runtime/internal/registry"
	"github.com/edgetwin/runtime/internal/rpc"
	"github.com/edgetwin/runtime/pkg/contextx"
	"github.com/edgetwin/runtime/pkg/di"
)

// Handlers holds the dependencies the reference transport dispatches
// into. Every field is an interface or concrete core type injected at
// bootstrap time; the transport owns no state of its own.
type Handlers struct {
	Registry   *registry.Registry
	Pipeline   *intercept.Pipeline
	Graph      *graph.Facade
	Correlator *rpc.Correlator
	ManagedSub *managedsub.Bridge
	Log        *zap.Logger
	DI         *di.Container
}

// withRequestContext attaches the DI container and logger to every
// request's context, so handlers can read them back with
// contextx.DI(ctx)/contextx.Logger(ctx) instead of taking them as
// explicit handler arguments.
func (h *Handlers) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h.DI != nil {
			ctx = contextx.WithDI(ctx, h.DI)
		}
		if h.Log != nil {
			ctx = contextx.WithLogger(ctx, h.Log)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Routes returns a chi.Router exposing the Registry, Graph, Answer, and
// Managed-Subscribe surfaces.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.withRequestContext)

	r.Get("/status", h.status)

	r.Post("/registry/register", h.register)
	r.Get("/registry/id/{id}", h.findByID)
	r.Get("/registry/model/{modelId}", h.findByModelID)
	r.Get("/registry/instance/{instanceId}", h.findByInstanceID)

	if h.Graph != nil {
		r.Get("/graph/find/{modelId}", h.graphFind)
		r.Get("/graph/get/{instanceId}", h.graphGet)
		r.Post("/graph/set/{instanceId}", h.graphSet)
		r.Post("/graph/invoke/{instanceId}/{command}", h.graphInvoke)
	}

	r.Post("/asks/{askId}/answer", h.answer)

	if h.ManagedSub != nil {
		r.Get("/managed-subscribe/subscription-info", h.subscriptionInfo)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
