// Package model defines the data types shared by the registry, the graph
// facade, and the interception layers: endpoint access records and the
// closed set of operations a record may advertise.
package model

import (
	"sort"
	"strings"

	"github.com/edgetwin/runtime/pkg/errors"
)

// Operation is one of the closed set of capabilities an endpoint access
// record may advertise.
type Operation string

const (
	OpGet              Operation = "Get"
	OpSet              Operation = "Set"
	OpInvoke           Operation = "Invoke"
	OpSubscribe        Operation = "Subscribe"
	OpUnsubscribe      Operation = "Unsubscribe"
	OpManagedSubscribe Operation = "ManagedSubscribe"
)

// OperationSet is the canonicalized, deduplicated form of a record's
// advertised operations. Duplicate tags collapse on parse.
type OperationSet map[Operation]struct{}

// ParseOperations validates each tag against the closed set and returns the
// canonical set. An unknown tag is rejected wholesale, matching Register's
// all-or-nothing semantics.
func ParseOperations(tags []string) (OperationSet, error) {
	set := make(OperationSet, len(tags))
	for _, t := range tags {
		op := Operation(t)
		switch op {
		case OpGet, OpSet, OpInvoke, OpSubscribe, OpUnsubscribe, OpManagedSubscribe:
			set[op] = struct{}{}
		default:
			return nil, errors.Wrap(errors.ErrInvalid, "unknown operation tag "+t)
		}
	}
	return set, nil
}

// Has reports whether op is present in the set.
func (s OperationSet) Has(op Operation) bool {
	_, ok := s[op]
	return ok
}

// Slice returns the set's members in a stable, lexicographically sorted
// order, useful for logging and equality assertions in tests.
func (s OperationSet) Slice() []string {
	out := make([]string, 0, len(s))
	for op := range s {
		out = append(out, string(op))
	}
	sort.Strings(out)
	return out
}

// Record is one endpoint access record: one way to reach one entity.
// Records are immutable once stored; the registry replaces rather than
// mutates them.
type Record struct {
	ProviderID string
	InstanceID string
	ModelID    string
	Protocol   string
	URI        string
	Context    string
	Operations OperationSet
}

// Key identifies a record for replacement purposes: two records with an
// identical key are considered the same logical registration, and the
// newer one wins.
type Key struct {
	ProviderID string
	InstanceID string
	ModelID    string
	Protocol   string
}

// Key returns r's replacement key.
func (r Record) Key() Key {
	return Key{ProviderID: r.ProviderID, InstanceID: r.InstanceID, ModelID: r.ModelID, Protocol: r.Protocol}
}

// Validate checks the mandatory-field invariants enforced at registration.
// Operations must already be parsed (see ParseOperations); Validate does
// not reject an empty operation set, since only unknown tags are rejected,
// not the absence of any operation.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ProviderID) == "" {
		return errors.Wrap(errors.ErrInvalid, "missing provider id")
	}
	if strings.TrimSpace(r.InstanceID) == "" {
		return errors.Wrap(errors.ErrInvalid, "missing instance id")
	}
	if strings.TrimSpace(r.ModelID) == "" {
		return errors.Wrap(errors.ErrInvalid, "missing model id")
	}
	return nil
}

// ByProviderThenInstance sorts records by (provider id, instance id)
// ascending, the deterministic tie-break and listing order used
// throughout registration and lookup.
func ByProviderThenInstance(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ProviderID != records[j].ProviderID {
			return records[i].ProviderID < records[j].ProviderID
		}
		return records[i].InstanceID < records[j].InstanceID
	})
}

// SelectPreferred picks the record advertising op whose (provider id,
// instance id) pair is lexicographically smallest. Used by the graph
// facade's Get/Set/Invoke to resolve one target deterministically out of
// several matching records, independent of registration order.
func SelectPreferred(records []Record, op Operation) (Record, bool) {
	var best Record
	found := false
	for _, r := range records {
		if !r.Operations.Has(op) {
			continue
		}
		if !found || r.ProviderID < best.ProviderID ||
			(r.ProviderID == best.ProviderID && r.InstanceID < best.InstanceID) {
			best = r
			found = true
		}
	}
	return best, found
}
