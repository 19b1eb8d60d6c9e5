package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityBech32RoundTrip(t *testing.T) {
	var id Identity
	for i := range id {
		id[i] = byte(i + 1)
	}
	encoded := id.String()
	require.True(t, strings.HasPrefix(encoded, IdentityPrefix+"1"))

	parsed, err := ParseIdentity(encoded)
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	fromHex, err := ParseIdentity(id.Hex())
	require.NoError(t, err)
	require.Equal(t, id, fromHex)
}

func TestParseIdentityRejectsMalformedInput(t *testing.T) {
	_, err := ParseIdentity("")
	require.Error(t, err)
	_, err = ParseIdentity("0x1234")
	require.Error(t, err)
	_, err = ParseIdentity("not-an-identity")
	require.Error(t, err)
}

func TestIdentityJSONUsesBech32(t *testing.T) {
	payload := struct {
		Owner Identity `json:"owner"`
	}{Owner: Identity{31: 7}}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"jgl1`)

	var decoded struct {
		Owner Identity `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, payload.Owner, decoded.Owner)
}
