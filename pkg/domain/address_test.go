package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tokenvault/pkg/domain-errors"
)

func testAddress(fill byte) Address {
	var a Address
	for i := range a {
		a[i] = fill
	}
	return a
}

// TestParseAddress_Invariants: addresses from the outside world must be
// exactly 32 non-zero bytes of base58.
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		want := testAddress(7)
		got, err := ParseAddress(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero address", func(t *testing.T) {
		_, err := ParseAddress(base58.Encode(make([]byte, AddressLen)))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := ParseAddress(base58.Encode([]byte{1, 2, 3}))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseAddress_SecurityInvariants(t *testing.T) {
	valid := testAddress(9).String()
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE vault_access;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", valid[:10] + "\x00" + valid[11:], true},
		{"Oversized input", strings.Repeat("1", 1000), true},
		{"Leading whitespace", " " + valid, true},
		{"Base58 excluded character", "0OIl" + valid[4:], true},
		{"Valid", valid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAddressText(t *testing.T) {
	a := testAddress(3)

	body, err := json.Marshal(struct {
		Owner Address `json:"owner"`
	}{Owner: a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"`+a.String()+`"}`, string(body))

	var decoded struct {
		Owner Address `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, a, decoded.Owner)

	empty, err := json.Marshal(ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, `""`, string(empty))
}

func TestAddressLess(t *testing.T) {
	low, high := testAddress(1), testAddress(2)
	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))
	assert.False(t, low.Less(low))
}
