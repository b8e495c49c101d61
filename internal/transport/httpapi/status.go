package httpapi

import (
	"net/http"

	"github.com/edgetwin/runtime/pkg/contextx"
)

// statusResponse reports the runtime configuration a caller would otherwise
// have to infer from behavior: the listen authority it was started with,
// the per-ask timeout applied to every Graph Facade call, and whether the
// Managed-Subscribe Interceptor stage is active.
type statusResponse struct {
	ListenAuthority         string `json:"listen_authority"`
	AskTimeoutMS            int    `json:"ask_timeout_ms"`
	ManagedSubscribeEnabled bool   `json:"managed_subscribe_enabled"`
}

// status reads the values bootstrap registered into the DI container back
// out through the request context, rather than threading *config.Config
// into Handlers directly.
func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	c := contextx.DI(r.Context())
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "no configuration container attached")
		return
	}

	resp := statusResponse{}
	resp.ListenAuthority, _ = c.GetString("listen_authority")
	resp.AskTimeoutMS, _ = c.GetInt("ask_timeout_ms")
	resp.ManagedSubscribeEnabled, _ = c.GetBool("managed_subscribe_enabled")
	writeJSON(w, http.StatusOK, resp)
}
