package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"jungle/core/types"
	"jungle/crypto"
	"jungle/native/jungle"
)

// allowList is the operator-maintained list of stakeable animals.
//
//	animals:
//	  - asset: jgl1...
//	    rarity: 42
//	    faction: bird
type allowList struct {
	Animals []allowListEntry `yaml:"animals"`
}

type allowListEntry struct {
	Asset   string `yaml:"asset"`
	Rarity  uint64 `yaml:"rarity"`
	Faction string `yaml:"faction"`
}

type allowListAnimal struct {
	Asset   types.Identity
	Rarity  uint64
	Faction jungle.Faction
}

func loadAllowList(path string) ([]allowListAnimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseAllowList(f)
}

func parseAllowList(r io.Reader) ([]allowListAnimal, error) {
	var doc allowList
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode allow-list: %w", err)
	}
	if len(doc.Animals) == 0 {
		return nil, fmt.Errorf("allow-list has no animals")
	}
	seen := make(map[types.Identity]int, len(doc.Animals))
	out := make([]allowListAnimal, len(doc.Animals))
	for i, entry := range doc.Animals {
		asset, err := types.ParseIdentity(entry.Asset)
		if err != nil {
			return nil, fmt.Errorf("animals[%d].asset: %w", i, err)
		}
		if prev, dup := seen[asset]; dup {
			return nil, fmt.Errorf("animals[%d]: asset already listed at %d", i, prev)
		}
		seen[asset] = i
		faction, err := jungle.ParseFaction(entry.Faction)
		if err != nil {
			return nil, fmt.Errorf("animals[%d].faction: %w", i, err)
		}
		out[i] = allowListAnimal{Asset: asset, Rarity: entry.Rarity, Faction: faction}
	}
	return out, nil
}

func buildTree(animals []allowListAnimal) (*crypto.MerkleTree, error) {
	leaves := make([][32]byte, len(animals))
	for i, a := range animals {
		leaves[i] = crypto.AllowListLeaf(a.Asset, a.Rarity, uint64(a.Faction))
	}
	return crypto.NewMerkleTree(leaves)
}

func indexOf(animals []allowListAnimal, asset types.Identity) int {
	for i, a := range animals {
		if a.Asset == asset {
			return i
		}
	}
	return -1
}
