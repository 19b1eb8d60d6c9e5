package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jungle/core/types"
)

type allowEntry struct {
	asset   [32]byte
	rarity  uint64
	faction uint64
}

func sampleEntries(n int) []allowEntry {
	entries := make([]allowEntry, n)
	for i := range entries {
		var asset [32]byte
		asset[0] = byte(i + 1)
		asset[31] = byte(0xA0 + i)
		entries[i] = allowEntry{asset: asset, rarity: uint64(i), faction: uint64(i % 8)}
	}
	return entries
}

func buildTree(t *testing.T, entries []allowEntry) *MerkleTree {
	t.Helper()
	leaves := make([][32]byte, len(entries))
	for i, e := range entries {
		leaves[i] = AllowListLeaf(e.asset, e.rarity, e.faction)
	}
	tree, err := NewMerkleTree(leaves)
	require.NoError(t, err)
	return tree
}

func TestMerkleProofsVerifyForEveryLeaf(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8, 13} {
		entries := sampleEntries(size)
		tree := buildTree(t, entries)
		for i, e := range entries {
			proof, ok := tree.Proof(i)
			require.True(t, ok)
			leaf := AllowListLeaf(e.asset, e.rarity, e.faction)
			require.True(t, VerifyMerkleProof(proof, tree.Root(), leaf), "size=%d index=%d", size, i)
			stored, ok := tree.Leaf(i)
			require.True(t, ok)
			require.Equal(t, leaf, stored)
		}
		_, ok := tree.Leaf(size)
		require.False(t, ok)
	}
}

func TestMerkleProofRejectsMismatchedAttributes(t *testing.T) {
	entries := sampleEntries(6)
	tree := buildTree(t, entries)
	proof, ok := tree.Proof(2)
	require.True(t, ok)
	e := entries[2]

	require.False(t, VerifyMerkleProof(proof, tree.Root(), AllowListLeaf(e.asset, e.rarity+1, e.faction)))
	require.False(t, VerifyMerkleProof(proof, tree.Root(), AllowListLeaf(e.asset, e.rarity, e.faction+1)))
	other := e.asset
	other[5] ^= 0xFF
	require.False(t, VerifyMerkleProof(proof, tree.Root(), AllowListLeaf(other, e.rarity, e.faction)))
	require.False(t, VerifyMerkleProof(proof[:len(proof)-1], tree.Root(), AllowListLeaf(e.asset, e.rarity, e.faction)))
}

func TestHashPairIsOrderIndependent(t *testing.T) {
	a := [32]byte{1}
	b := [32]byte{2}
	require.Equal(t, HashPair(a, b), HashPair(b, a))
	require.NotEqual(t, HashPair(a, b), HashPair(a, a))
}

func TestVerifyMerkleProofBytesRejectsShortElements(t *testing.T) {
	entries := sampleEntries(4)
	tree := buildTree(t, entries)
	proof, _ := tree.Proof(0)
	raw := make([][]byte, len(proof))
	for i := range proof {
		raw[i] = append([]byte(nil), proof[i][:]...)
	}
	leaf := AllowListLeaf(entries[0].asset, entries[0].rarity, entries[0].faction)
	require.True(t, VerifyMerkleProofBytes(raw, tree.Root(), leaf))

	raw[0] = raw[0][:31]
	require.False(t, VerifyMerkleProofBytes(raw, tree.Root(), leaf))
}

func TestLeafLayoutIsLittleEndian(t *testing.T) {
	asset := [32]byte{9}
	require.NotEqual(t, AllowListLeaf(asset, 1, 0), AllowListLeaf(asset, 1<<56, 0))
}

func TestDeriveIdentityIsDeterministic(t *testing.T) {
	key := types.Identity{1}
	mint := types.Identity{2}
	require.Equal(t, EscrowIdentity(key), EscrowIdentity(key))
	require.NotEqual(t, EscrowIdentity(key), EscrowIdentity(mint))
	require.NotEqual(t, EscrowIdentity(key), RewardsIdentity(key, mint))
}

func TestNewMerkleTreeRequiresLeaves(t *testing.T) {
	_, err := NewMerkleTree(nil)
	require.Error(t, err)
}
