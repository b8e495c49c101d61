package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgetwin/runtime/internal/intercept"
	"github.com/edgetwin/runtime/internal/model"
	twinerrors "github.com/edgetwin/runtime/pkg/errors"
	"github.com/edgetwin/runtime/pkg/metrics"
)

// wireRecord is model.Record's wire shape: Operations travels as a plain
// string slice since OperationSet has no useful JSON encoding of its own.
type wireRecord struct {
	ProviderID string   `json:"provider_id"`
	InstanceID string   `json:"instance_id"`
	ModelID    string   `json:"model_id"`
	Protocol   string   `json:"protocol"`
	URI        string   `json:"uri"`
	Context    string   `json:"context,omitempty"`
	Operations []string `json:"operations"`
}

func (w wireRecord) toRecord() (model.Record, error) {
	ops, err := model.ParseOperations(w.Operations)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{
		ProviderID: w.ProviderID,
		InstanceID: w.InstanceID,
		ModelID:    w.ModelID,
		Protocol:   w.Protocol,
		URI:        w.URI,
		Context:    w.Context,
		Operations: ops,
	}, nil
}

func fromRecord(r model.Record) wireRecord {
	return wireRecord{
		ProviderID: r.ProviderID,
		InstanceID: r.InstanceID,
		ModelID:    r.ModelID,
		Protocol:   r.Protocol,
		URI:        r.URI,
		Context:    r.Context,
		Operations: r.Operations.Slice(),
	}
}

func fromRecords(records []model.Record) []wireRecord {
	out := make([]wireRecord, len(records))
	for i, r := range records {
		out[i] = fromRecord(r)
	}
	return out
}

// register implements the Registry service's Register call: decode, run
// the request interception pipeline (so Managed-Subscribe registrations
// get rewritten before they land in the registry), then apply.
func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var body []wireRecord
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	records := make([]model.Record, len(body))
	for i, wr := range body {
		rec, err := wr.toRecord()
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		records[i] = rec
	}

	call := intercept.Call{Name: "Register", Request: records}
	if h.Pipeline != nil {
		var err error
		var sc *intercept.ShortCircuit
		call, sc, err = h.Pipeline.HandleRequest(r.Context(), call)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if sc != nil {
			writeJSON(w, http.StatusOK, sc.Response)
			return
		}
	}

	rewritten, ok := call.Request.([]model.Record)
	if !ok {
		writeError(w, http.StatusInternalServerError, "interceptor returned an unexpected request type")
		return
	}

	if err := h.Registry.Register(rewritten); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	metrics.RegistryRecords.Set(float64(h.Registry.Size()))
	writeJSON(w, http.StatusOK, map[string]int{"registered": len(rewritten)})
}

func (h *Handlers) findByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.Registry.FindByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, twinerrors.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, fromRecord(rec))
}

func (h *Handlers) findByModelID(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelId")
	writeJSON(w, http.StatusOK, fromRecords(h.Registry.FindByModelID(modelID)))
}

func (h *Handlers) findByInstanceID(w http.ResponseWriter, r *http.Request) {
	instanceID := chi.URLParam(r, "instanceId")
	writeJSON(w, http.StatusOK, fromRecords(h.Registry.FindByInstanceID(instanceID)))
}
