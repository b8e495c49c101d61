package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type findResponse struct {
	Payloads    []string         `json:"payloads"`
	Diagnostics []findDiagnostic `json:"diagnostics,omitempty"`
}

type findDiagnostic struct {
	ProviderID string `json:"provider_id"`
	InstanceID string `json:"instance_id"`
	Error      string `json:"error"`
}

// graphFind implements Graph.Find: fan out to every candidate record
// advertising Get and return both the answer payloads of the records that
// answered and diagnostics for the ones that didn't.
func (h *Handlers) graphFind(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelId")
	payloads, results := h.Graph.Find(r.Context(), modelID)

	resp := findResponse{Payloads: payloads}
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		resp.Diagnostics = append(resp.Diagnostics, findDiagnostic{
			ProviderID: res.ProviderID,
			InstanceID: res.InstanceID,
			Error:      res.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) graphGet(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	memberPath := r.URL.Query().Get("member")

	payload, err := h.Graph.Get(r.Context(), instanceID, memberPath)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payload": payload})
}

func (h *Handlers) graphSet(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	memberPath := r.URL.Query().Get("member")

	var body struct {
		Value interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Graph.Set(r.Context(), instanceID, memberPath, body.Value); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) graphInvoke(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	command := chi.URLParam(r, "command")

	var body struct {
		Request interface{} `json:"request"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	payload, err := h.Graph.Invoke(r.Context(), instanceID, command, body.Request)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"payload": payload})
}
