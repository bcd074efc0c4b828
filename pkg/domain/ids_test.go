package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetting/pkg/domain-errors"
)

// TestParseDriverID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
//
// Justification: path parameters are a trust boundary; every admin action
// starts by parsing one of these.
func TestParseDriverID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"invalid format", "not-a-uuid", true},
		{"nil UUID", uuid.Nil.String(), true},
		{"SQL injection attempt", "'; DROP TABLE drivers;--", true},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDriverID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// Justification: inconsistent validation across ID types would let one entry
// point accept what another rejects.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		d, errDriver := ParseDriverID(valid)
		a, errArtifact := ParseArtifactID(valid)
		e, errEvent := ParseEventID(valid)
		require.NoError(t, errDriver)
		require.NoError(t, errArtifact)
		require.NoError(t, errEvent)
		assert.Equal(t, valid, d.String())
		assert.Equal(t, valid, a.String())
		assert.Equal(t, valid, e.String())
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errDriver := ParseDriverID(input)
			_, errArtifact := ParseArtifactID(input)
			_, errEvent := ParseEventID(input)
			require.Error(t, errDriver)
			require.Error(t, errArtifact)
			require.Error(t, errEvent)
		})
	}
}

func TestIDs_MarshalAsString(t *testing.T) {
	id := NewDriverID()
	out, err := json.Marshal(struct {
		ID DriverID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(out))
	assert.False(t, id.IsNil())
	assert.True(t, DriverID{}.IsNil())
}
