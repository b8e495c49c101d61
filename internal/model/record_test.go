package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgetwin/runtime/pkg/errors"
)

func TestParseOperationsCanonicalizesDuplicates(t *testing.T) {
	set, err := ParseOperations([]string{"Get", "Set", "Get"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Get", "Set"}, set.Slice())
}

func TestParseOperationsRejectsUnknownTag(t *testing.T) {
	_, err := ParseOperations([]string{"Get", "Bogus"})
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestParseOperationsEmptyIsValid(t *testing.T) {
	set, err := ParseOperations(nil)
	require.NoError(t, err)
	assert.Empty(t, set.Slice())
}

func TestRecordValidateRequiresMandatoryFields(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"missing provider", Record{InstanceID: "i", ModelID: "m"}, false},
		{"missing instance", Record{ProviderID: "p", ModelID: "m"}, false},
		{"missing model", Record{ProviderID: "p", InstanceID: "i"}, false},
		{"complete", Record{ProviderID: "p", InstanceID: "i", ModelID: "m"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalid)
			}
		})
	}
}

func TestRecordKeyIdentifiesReplacementTarget(t *testing.T) {
	a := Record{ProviderID: "p", InstanceID: "i", ModelID: "m", Protocol: "grpc", URI: "u1"}
	b := Record{ProviderID: "p", InstanceID: "i", ModelID: "m", Protocol: "grpc", URI: "u2"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestSelectPreferredPicksLexicographicallySmallest(t *testing.T) {
	set, _ := ParseOperations([]string{"Get"})
	records := []Record{
		{ProviderID: "z", InstanceID: "a", Operations: set},
		{ProviderID: "a", InstanceID: "z", Operations: set},
		{ProviderID: "a", InstanceID: "a", Operations: set},
	}
	best, ok := SelectPreferred(records, OpGet)
	require.True(t, ok)
	assert.Equal(t, "a", best.ProviderID)
	assert.Equal(t, "a", best.InstanceID)
}

func TestSelectPreferredIgnoresRecordsWithoutTheOperation(t *testing.T) {
	getOnly, _ := ParseOperations([]string{"Get"})
	records := []Record{{ProviderID: "a", InstanceID: "a", Operations: getOnly}}
	_, ok := SelectPreferred(records, OpSet)
	assert.False(t, ok)
}

func TestByProviderThenInstanceSortsDeterministically(t *testing.T) {
	records := []Record{
		{ProviderID: "b", InstanceID: "a"},
		{ProviderID: "a", InstanceID: "z"},
		{ProviderID: "a", InstanceID: "a"},
	}
	ByProviderThenInstance(records)
	assert.Equal(t, []Record{
		{ProviderID: "a", InstanceID: "a"},
		{ProviderID: "a", InstanceID: "z"},
		{ProviderID: "b", InstanceID: "a"},
	}, records)
}
