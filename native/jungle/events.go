package jungle

import (
	"encoding/hex"
	"strconv"

	"jungle/core/types"
)

const (
	// EventTypeJungleInitialized is emitted when a jungle is created.
	EventTypeJungleInitialized = "jungle.initialized"
	// EventTypeJungleUpdated is emitted when the owner replaces the jungle parameters.
	EventTypeJungleUpdated = "jungle.updated"
	// EventTypeRewardsFunded is emitted when reward tokens are moved into the pool.
	EventTypeRewardsFunded = "jungle.rewards.funded"
	// EventTypeRewardsWithdrawn is emitted when the owner drains reward tokens.
	EventTypeRewardsWithdrawn = "jungle.rewards.withdrawn"
	// EventTypeAnimalStaked is emitted when an animal enters the jungle.
	EventTypeAnimalStaked = "jungle.animal.staked"
	// EventTypeRewardsClaimed is emitted when a staker claims accrued rewards.
	EventTypeRewardsClaimed = "jungle.rewards.claimed"
	// EventTypeAnimalUnstaked is emitted when an animal leaves the jungle.
	EventTypeAnimalUnstaked = "jungle.animal.unstaked"
)

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// JungleInitializedEvent describes a newly created jungle.
func JungleInitializedEvent(cfg *Config) *types.Event {
	return types.NewEvent(EventTypeJungleInitialized).
		With("jungle", cfg.Key.String()).
		With("owner", cfg.Owner.String()).
		With("mint", cfg.Mint.String()).
		With("root", "0x"+hex.EncodeToString(cfg.Root[:])).
		With("start", strconv.FormatInt(cfg.Start, 10))
}

// JungleUpdatedEvent describes a parameter update.
func JungleUpdatedEvent(cfg *Config) *types.Event {
	return types.NewEvent(EventTypeJungleUpdated).
		With("jungle", cfg.Key.String()).
		With("owner", cfg.Owner.String()).
		With("maximumRarity", formatUint(cfg.MaximumRarity)).
		With("maximumRarityMultiplier", formatUint(cfg.MaximumRarityMultiplier)).
		With("baseWeeklyEmissions", formatUint(cfg.BaseWeeklyEmissions)).
		With("root", "0x"+hex.EncodeToString(cfg.Root[:]))
}

// RewardsFundedEvent describes a deposit into the reward pool.
func RewardsFundedEvent(cfg *Config, funder types.Identity, amount uint64) *types.Event {
	return types.NewEvent(EventTypeRewardsFunded).
		With("jungle", cfg.Key.String()).
		With("funder", funder.String()).
		With("amount", formatUint(amount))
}

// RewardsWithdrawnEvent describes an owner withdrawal from the reward pool.
func RewardsWithdrawnEvent(cfg *Config, amount uint64) *types.Event {
	return types.NewEvent(EventTypeRewardsWithdrawn).
		With("jungle", cfg.Key.String()).
		With("owner", cfg.Owner.String()).
		With("amount", formatUint(amount))
}

// AnimalStakedEvent describes a stake.
func AnimalStakedEvent(cfg *Config, animal *Animal) *types.Event {
	return types.NewEvent(EventTypeAnimalStaked).
		With("jungle", cfg.Key.String()).
		With("mint", animal.Mint.String()).
		With("staker", animal.Staker.String()).
		With("rarity", formatUint(animal.Rarity)).
		With("faction", animal.Faction.String()).
		With("animalsStaked", formatUint(cfg.AnimalsStaked))
}

// RewardsClaimedEvent describes a reward claim.
func RewardsClaimedEvent(cfg *Config, animal *Animal, amount uint64) *types.Event {
	return types.NewEvent(EventTypeRewardsClaimed).
		With("jungle", cfg.Key.String()).
		With("mint", animal.Mint.String()).
		With("staker", animal.Staker.String()).
		With("amount", formatUint(amount)).
		With("lastClaim", strconv.FormatInt(animal.LastClaim, 10))
}

// AnimalUnstakedEvent describes an unstake.
func AnimalUnstakedEvent(cfg *Config, animal *Animal) *types.Event {
	return types.NewEvent(EventTypeAnimalUnstaked).
		With("jungle", cfg.Key.String()).
		With("mint", animal.Mint.String()).
		With("staker", animal.Staker.String()).
		With("animalsStaked", formatUint(cfg.AnimalsStaked))
}
