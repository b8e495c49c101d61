package httpapi

import (
	"net/http"
)

// subscriptionInfo implements the Managed-Subscribe bridge's
// GetSubscriptionInfo call.
func (h *Handlers) subscriptionInfo(w http.ResponseWriter, r *http.Request) {
	instanceID := r.URL.Query().Get("instance_id")
	if instanceID == "" {
		writeError(w, http.StatusBadRequest, "instance_id is required")
		return
	}
	constraints := r.URL.Query().Get("constraints")

	topic, brokerEndpoint, err := h.ManagedSub.GetSubscriptionInfo(r.Context(), instanceID, constraints)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"topic":           topic,
		"broker_endpoint": brokerEndpoint,
	})
}
