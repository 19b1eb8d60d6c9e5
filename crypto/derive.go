package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"jungle/core/types"
)

// Derivation tags for program-controlled holders.
const (
	TagEscrow  = "escrow"
	TagRewards = "rewards"
)

// DeriveIdentity returns keccak256(tag || parts...) as an identity. Program
// holders (escrows, reward pools) are derived this way so no key controls them.
func DeriveIdentity(tag string, parts ...[]byte) types.Identity {
	chunks := make([][]byte, 0, len(parts)+1)
	chunks = append(chunks, []byte(tag))
	chunks = append(chunks, parts...)
	return types.Identity(ethcrypto.Keccak256Hash(chunks...))
}

// EscrowIdentity is the custody holder of a program instance.
func EscrowIdentity(key types.Identity) types.Identity {
	return DeriveIdentity(TagEscrow, key[:])
}

// RewardsIdentity is the reward pool holding mint for a program instance.
func RewardsIdentity(key, mint types.Identity) types.Identity {
	return DeriveIdentity(TagRewards, key[:], mint[:])
}
