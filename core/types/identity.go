package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// IdentityPrefix is the human-readable part used when rendering identities.
const IdentityPrefix = "jgl"

// Identity is the fixed-width handle of a holder, asset or program record.
type Identity [32]byte

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Bytes returns a copy of the raw identity.
func (id Identity) Bytes() []byte {
	return append([]byte(nil), id[:]...)
}

// Hex renders the identity as 0x-prefixed hex.
func (id Identity) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// String renders the identity in bech32 form.
func (id Identity) String() string {
	conv, err := bech32.ConvertBits(id[:], 8, 5, true)
	if err != nil {
		return id.Hex()
	}
	encoded, err := bech32.Encode(IdentityPrefix, conv)
	if err != nil {
		return id.Hex()
	}
	return encoded
}

// MarshalText encodes the identity in bech32 form.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText accepts either bech32 or 0x-prefixed hex.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// BytesToIdentity copies b into an identity, left-padding shorter inputs.
func BytesToIdentity(b []byte) Identity {
	var id Identity
	if len(b) > len(id) {
		b = b[len(b)-len(id):]
	}
	copy(id[len(id)-len(b):], b)
	return id
}

// ParseIdentity decodes a bech32 (jgl1...) or hex encoded identity.
func ParseIdentity(value string) (Identity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Identity{}, fmt.Errorf("identity required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw, err := hex.DecodeString(trimmed[2:])
		if err != nil {
			return Identity{}, fmt.Errorf("invalid hex identity: %w", err)
		}
		if len(raw) != 32 {
			return Identity{}, fmt.Errorf("identity must be 32 bytes (got %d)", len(raw))
		}
		return BytesToIdentity(raw), nil
	}
	prefix, decoded, err := bech32.Decode(trimmed)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != IdentityPrefix {
		return Identity{}, fmt.Errorf("unexpected identity prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Identity{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != 32 {
		return Identity{}, fmt.Errorf("identity must be 32 bytes (got %d)", len(conv))
	}
	return BytesToIdentity(conv), nil
}
