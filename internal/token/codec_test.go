package token

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "4f9c2a8d1e7b63500112233445566778899aabbccddeeff00112233445566778"

func TestDeriveDeterministic(t *testing.T) {
	ts := int64(1737021600000) // 2025-01-16 10:00:00 UTC

	a := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, ts)
	b := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, ts)

	assert.Equal(t, a, b)
	assert.Len(t, a, TokenLength)
	assert.Regexp(t, `^[0-9a-f]{16}$`, a)
}

func TestDeriveSameSlotSameToken(t *testing.T) {
	base := int64(1737021600000)

	// Two timestamps inside the same 60s slot derive the same token.
	a := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, base)
	b := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, base+59_999)
	assert.Equal(t, a, b)
}

func TestDeriveSlotSensitivity(t *testing.T) {
	base := int64(1737021600000)

	a := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, base)
	b := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, base+SlotMillis)
	assert.NotEqual(t, a, b, "tokens from different slots must differ")
}

func TestDeriveInputSensitivity(t *testing.T) {
	ts := int64(1737021600000)
	base := Derive("E1", "2025-01-16", ActionCheckIn, testSeed, ts)

	assert.NotEqual(t, base, Derive("E2", "2025-01-16", ActionCheckIn, testSeed, ts))
	assert.NotEqual(t, base, Derive("E1", "2025-01-17", ActionCheckIn, testSeed, ts))
	assert.NotEqual(t, base, Derive("E1", "2025-01-16", ActionCheckOut, testSeed, ts))
	assert.NotEqual(t, base, Derive("E1", "2025-01-16", ActionCheckIn, "other-seed", ts))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := int64(1737021600000)
	tok := Derive("E1", "2025-01-16", ActionCheckOut, testSeed, ts)

	data, err := Encode("E1", "2025-01-16", ActionCheckOut, tok, ts)
	require.NoError(t, err)

	p, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "E1", p.EventID)
	assert.Equal(t, "2025-01-16", p.Date)
	assert.Equal(t, ActionCheckOut, p.Action)
	assert.Equal(t, tok, p.Token)
	assert.Equal(t, ts, p.Timestamp)
	assert.Equal(t, SchemaVersion, p.Version)
}

func TestDecodeRejections(t *testing.T) {
	valid := map[string]any{
		"eventId":   "E1",
		"date":      "2025-01-16",
		"type":      "check-in",
		"token":     "0123456789abcdef",
		"timestamp": int64(1737021600000),
		"version":   "1.0",
	}
	mutate := func(mutations map[string]any, drop ...string) []byte {
		m := make(map[string]any, len(valid))
		for k, v := range valid {
			m[k] = v
		}
		for k, v := range mutations {
			m[k] = v
		}
		for _, k := range drop {
			delete(m, k)
		}
		data, err := json.Marshal(m)
		require.NoError(t, err)
		return data
	}

	testCases := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"not json", []byte("not-a-payload"), ErrMalformedPayload},
		{"missing eventId", mutate(nil, "eventId"), ErrMissingField},
		{"missing date", mutate(nil, "date"), ErrMissingField},
		{"missing type", mutate(nil, "type"), ErrMissingField},
		{"missing token", mutate(nil, "token"), ErrMissingField},
		{"missing timestamp", mutate(nil, "timestamp"), ErrMissingField},
		{"missing version", mutate(nil, "version"), ErrMissingField},
		{"empty eventId", mutate(map[string]any{"eventId": ""}), ErrMissingField},
		{"unknown action", mutate(map[string]any{"type": "break"}), ErrUnknownAction},
		{"wrong version", mutate(map[string]any{"version": "2.0"}), ErrUnsupportedVersion},
		{"bad date", mutate(map[string]any{"date": "16/01/2025"}), ErrMalformedPayload},
		{"short token", mutate(map[string]any{"token": "abc"}), ErrMalformedPayload},
		{"uppercase token", mutate(map[string]any{"token": "0123456789ABCDEF"}), ErrMalformedPayload},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
