package crypto

import (
	"bytes"
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	leafDomainTag = 0x00
	nodeDomainTag = 0x01
)

var errEmptyTree = errors.New("merkle: tree requires at least one leaf")

// AllowListLeaf hashes an allow-list entry:
// keccak256(0x00 || asset || le64(rarity) || le64(faction)).
func AllowListLeaf(asset [32]byte, rarity, faction uint64) [32]byte {
	var rarityLE, factionLE [8]byte
	binary.LittleEndian.PutUint64(rarityLE[:], rarity)
	binary.LittleEndian.PutUint64(factionLE[:], faction)
	return ethcrypto.Keccak256Hash([]byte{leafDomainTag}, asset[:], rarityLE[:], factionLE[:])
}

// HashPair combines two nodes independently of their position in the tree:
// keccak256(0x01 || min(a, b) || max(a, b)).
func HashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return ethcrypto.Keccak256Hash([]byte{nodeDomainTag}, a[:], b[:])
}

// VerifyMerkleProof folds proof into leaf from left to right and reports
// whether the result equals root.
func VerifyMerkleProof(proof [][32]byte, root, leaf [32]byte) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed == root
}

// VerifyMerkleProofBytes is VerifyMerkleProof for untyped input. Any proof
// element that is not exactly 32 bytes fails verification.
func VerifyMerkleProofBytes(proof [][]byte, root, leaf [32]byte) bool {
	typed := make([][32]byte, len(proof))
	for i, element := range proof {
		if len(element) != 32 {
			return false
		}
		copy(typed[i][:], element)
	}
	return VerifyMerkleProof(typed, root, leaf)
}

// MerkleTree is a binary tree over allow-list leaves built with HashPair. A
// node without a sibling is promoted to the next level unchanged.
type MerkleTree struct {
	levels [][][32]byte
}

// NewMerkleTree builds a tree over the supplied leaves in order.
func NewMerkleTree(leaves [][32]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, errEmptyTree
	}
	level := make([][32]byte, len(leaves))
	copy(level, leaves)
	levels := [][][32]byte{level}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &MerkleTree{levels: levels}, nil
}

// Root returns the tree root.
func (t *MerkleTree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Len returns the number of leaves.
func (t *MerkleTree) Len() int {
	return len(t.levels[0])
}

// Leaf returns the leaf at index.
func (t *MerkleTree) Leaf(index int) ([32]byte, bool) {
	if index < 0 || index >= t.Len() {
		return [32]byte{}, false
	}
	return t.levels[0][index], true
}

// Proof returns the sibling path for the leaf at index, ordered from the leaf
// up to the root.
func (t *MerkleTree) Proof(index int) ([][32]byte, bool) {
	if index < 0 || index >= t.Len() {
		return nil, false
	}
	proof := make([][32]byte, 0, len(t.levels))
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, true
}
