package jungle

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// BasisPoints represents a 1x multiplier.
	BasisPoints = 10_000
	// SecondsPerWeek is the emission period of BaseWeeklyEmissions.
	SecondsPerWeek = 604_800
)

// RarityMultiplier returns the reward multiplier in basis points for rarity:
// 10000 + (max_multiplier - 10000) * min(rarity, max_rarity) / max_rarity.
// The result lies in [10000, MaximumRarityMultiplier].
func RarityMultiplier(cfg *Config, rarity uint64) uint64 {
	if cfg.MaximumRarity == 0 {
		panic("jungle: reward accrual with zero maximum rarity")
	}
	if cfg.MaximumRarityMultiplier < BasisPoints {
		panic("jungle: reward accrual with multiplier below 1x")
	}
	effective := rarity
	if effective > cfg.MaximumRarity {
		effective = cfg.MaximumRarity
	}
	bonus := uint256.NewInt(cfg.MaximumRarityMultiplier - BasisPoints)
	bonus.Mul(bonus, uint256.NewInt(effective))
	bonus.Div(bonus, uint256.NewInt(cfg.MaximumRarity))
	return BasisPoints + bonus.Uint64()
}

// ComputeReward returns the reward accrued by animal between its last claim
// and now. The divisions truncate one after another in this exact order:
//
//	weekly = base_weekly_emissions * multiplier / 10000
//	reward = weekly * elapsed / 604800 / animals_staked
//
// Products are evaluated in 256 bits so they never wrap. Calling it with no
// staked animals or with now before the last claim breaks the registry
// contract and panics.
func ComputeReward(cfg *Config, animal *Animal, now int64) (uint64, error) {
	if cfg.AnimalsStaked == 0 {
		panic("jungle: reward accrual with no staked animals")
	}
	elapsed := now - animal.LastClaim
	if elapsed < 0 {
		panic(fmt.Sprintf("jungle: reward accrual before last claim (now=%d lastClaim=%d)", now, animal.LastClaim))
	}
	multiplier := RarityMultiplier(cfg, animal.Rarity)

	weekly := new(uint256.Int).Mul(uint256.NewInt(cfg.BaseWeeklyEmissions), uint256.NewInt(multiplier))
	weekly.Div(weekly, uint256.NewInt(BasisPoints))
	if !weekly.IsUint64() {
		return 0, ErrRewardOverflow
	}

	reward := new(uint256.Int).Mul(weekly, uint256.NewInt(uint64(elapsed)))
	reward.Div(reward, uint256.NewInt(SecondsPerWeek))
	reward.Div(reward, uint256.NewInt(cfg.AnimalsStaked))
	if !reward.IsUint64() {
		return 0, ErrRewardOverflow
	}
	return reward.Uint64(), nil
}
