package state

import (
	"fmt"

	"jungle/core/types"
	"jungle/native/jungle"
)

type storedJungle struct {
	Key                     types.Identity
	Owner                   types.Identity
	Escrow                  types.Identity
	Mint                    types.Identity
	RewardsAccount          types.Identity
	AnimalsStaked           uint64
	MaximumRarity           uint64
	MaximumRarityMultiplier uint64
	BaseWeeklyEmissions     uint64
	Start                   uint64
	Root                    [32]byte
}

func newStoredJungle(cfg *jungle.Config) *storedJungle {
	return &storedJungle{
		Key:                     cfg.Key,
		Owner:                   cfg.Owner,
		Escrow:                  cfg.Escrow,
		Mint:                    cfg.Mint,
		RewardsAccount:          cfg.RewardsAccount,
		AnimalsStaked:           cfg.AnimalsStaked,
		MaximumRarity:           cfg.MaximumRarity,
		MaximumRarityMultiplier: cfg.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     cfg.BaseWeeklyEmissions,
		Start:                   uint64(cfg.Start),
		Root:                    cfg.Root,
	}
}

func (s *storedJungle) toConfig() *jungle.Config {
	return &jungle.Config{
		Key:                     s.Key,
		Owner:                   s.Owner,
		Escrow:                  s.Escrow,
		Mint:                    s.Mint,
		RewardsAccount:          s.RewardsAccount,
		AnimalsStaked:           s.AnimalsStaked,
		MaximumRarity:           s.MaximumRarity,
		MaximumRarityMultiplier: s.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     s.BaseWeeklyEmissions,
		Start:                   int64(s.Start),
		Root:                    s.Root,
	}
}

type storedAnimal struct {
	Jungle    types.Identity
	Mint      types.Identity
	Staker    types.Identity
	Rarity    uint64
	Faction   uint8
	LastClaim uint64
}

// JungleGet loads the jungle configuration identified by key.
func (m *Manager) JungleGet(key types.Identity) (*jungle.Config, bool, error) {
	var stored storedJungle
	ok, err := m.KVGet(JungleConfigKey(key), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toConfig(), true, nil
}

// JunglePut persists a jungle configuration.
func (m *Manager) JunglePut(cfg *jungle.Config) error {
	if cfg == nil {
		return fmt.Errorf("state: nil jungle config")
	}
	return m.KVPut(JungleConfigKey(cfg.Key), newStoredJungle(cfg))
}

// AnimalGet loads the staking record of an asset.
func (m *Manager) AnimalGet(mint types.Identity) (*jungle.Animal, bool, error) {
	var stored storedAnimal
	ok, err := m.KVGet(JungleAnimalKey(mint), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &jungle.Animal{
		Jungle:    stored.Jungle,
		Mint:      stored.Mint,
		Staker:    stored.Staker,
		Rarity:    stored.Rarity,
		Faction:   jungle.Faction(stored.Faction),
		LastClaim: int64(stored.LastClaim),
	}, true, nil
}

// AnimalPut persists the staking record of an asset.
func (m *Manager) AnimalPut(animal *jungle.Animal) error {
	if animal == nil {
		return fmt.Errorf("state: nil animal")
	}
	return m.KVPut(JungleAnimalKey(animal.Mint), &storedAnimal{
		Jungle:    animal.Jungle,
		Mint:      animal.Mint,
		Staker:    animal.Staker,
		Rarity:    animal.Rarity,
		Faction:   uint8(animal.Faction),
		LastClaim: uint64(animal.LastClaim),
	})
}

// AnimalDelete removes the staking record of an asset.
func (m *Manager) AnimalDelete(mint types.Identity) error {
	return m.KVDelete(JungleAnimalKey(mint))
}
