// Package registry implements the Registry Core: a concurrent, in-memory
// index of endpoint access records keyed by provider, instance, and model
// identifiers. A single sync.RWMutex guards the primary map and its two
// derived indices (by model id and by instance id); readers never block
// readers. There is no combined (model id, instance id) index.
package registry

import (
	"sync"

	"github.com/edgetwin/runtime/internal/model"
)

// Registry is the thread-safe store of endpoint access records. The zero
// value is not usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	// byKey holds the primary set, keyed by replacement key so that
	// re-registration overwrites rather than appends.
	byKey map[model.Key]model.Record

	// insertion order of keys, preserved so find_by_* results are
	// deterministic even before the (provider, instance) sort is applied;
	// replacing a key keeps its original position.
	order []model.Key

	byModelID    map[string]map[model.Key]struct{}
	byInstanceID map[string]map[model.Key]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		byKey:        make(map[model.Key]model.Record),
		byModelID:    make(map[string]map[model.Key]struct{}),
		byInstanceID: make(map[string]map[model.Key]struct{}),
	}
}

// Register atomically inserts or replaces every record in records. On any
// validation failure the whole batch is rejected and no record is applied.
func (r *Registry) Register(records []model.Record) error {
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.putLocked(rec)
	}
	return nil
}

func (r *Registry) putLocked(rec model.Record) {
	key := rec.Key()
	if _, exists := r.byKey[key]; !exists {
		r.order = append(r.order, key)
	} else {
		r.unindexLocked(key)
	}
	r.byKey[key] = rec
	r.indexLocked(key, rec)
}

func (r *Registry) indexLocked(key model.Key, rec model.Record) {
	if r.byModelID[rec.ModelID] == nil {
		r.byModelID[rec.ModelID] = make(map[model.Key]struct{})
	}
	r.byModelID[rec.ModelID][key] = struct{}{}

	if r.byInstanceID[rec.InstanceID] == nil {
		r.byInstanceID[rec.InstanceID] = make(map[model.Key]struct{})
	}
	r.byInstanceID[rec.InstanceID][key] = struct{}{}
}

// unindexLocked removes key from the derived indices before it is
// re-applied with possibly different ModelID/InstanceID values. Replacement
// is keyed on (provider, instance, model, protocol) so ModelID/InstanceID
// never actually change across a replacement in practice, but this keeps
// the indices correct regardless.
func (r *Registry) unindexLocked(key model.Key) {
	old := r.byKey[key]
	if set, ok := r.byModelID[old.ModelID]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(r.byModelID, old.ModelID)
		}
	}
	if set, ok := r.byInstanceID[old.InstanceID]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(r.byInstanceID, old.InstanceID)
		}
	}
}

// FindByModelID returns every record with the given model id, ordered by
// (provider id, instance id) ascending.
func (r *Registry) FindByModelID(modelID string) []model.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(r.byModelID[modelID])
}

// FindByInstanceID returns every record with the given instance id, ordered
// by (provider id, instance id) ascending.
func (r *Registry) FindByInstanceID(instanceID string) []model.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(r.byInstanceID[instanceID])
}

func (r *Registry) collectLocked(keys map[model.Key]struct{}) []model.Record {
	out := make([]model.Record, 0, len(keys))
	for _, key := range r.order {
		if _, ok := keys[key]; ok {
			out = append(out, r.byKey[key])
		}
	}
	model.ByProviderThenInstance(out)
	return out
}

// FindByID treats id as an instance id first, then as a model id, returning
// the first record in deterministic order. This conflates two lookup kinds
// for compatibility with callers that only have a single ambiguous id;
// new callers should prefer the typed lookups.
func (r *Registry) FindByID(id string) (model.Record, bool) {
	if recs := r.FindByInstanceID(id); len(recs) > 0 {
		return recs[0], true
	}
	if recs := r.FindByModelID(id); len(recs) > 0 {
		return recs[0], true
	}
	return model.Record{}, false
}

// Size returns the number of distinct (provider, instance, model, protocol)
// records currently stored, for the registry-size metric.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
