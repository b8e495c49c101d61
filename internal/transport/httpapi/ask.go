package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// answer implements the Async RPC Respond surface's Answer call: unknown
// ask ids are silently accepted, matching the correlator's own
// discard-unknown-answer behavior.
func (h *Handlers) answer(w http.ResponseWriter, r *http.Request) {
	askID := chi.URLParam(r, "askId")

	var body struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Correlator.Answer(askID, body.Payload)
	w.WriteHeader(http.StatusNoContent)
}
