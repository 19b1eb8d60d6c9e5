package jungle

import (
	"fmt"
	"strconv"
	"strings"

	"jungle/core/types"
)

// Faction is the category an animal belongs to. Zero means no faction.
type Faction uint8

const (
	FactionNone Faction = iota
	FactionSerengeti
	FactionAmphibian
	FactionReptile
	FactionMisfit
	FactionBird
	FactionMonkey
	FactionCarnivore
	FactionExtinct
)

// MaxFaction is the highest valid faction id.
const MaxFaction = FactionExtinct

var factionNames = [...]string{
	"none",
	"serengeti",
	"amphibian",
	"reptile",
	"misfit",
	"bird",
	"monkey",
	"carnivore",
	"extinct",
}

func (f Faction) String() string {
	if f > MaxFaction {
		return fmt.Sprintf("faction(%d)", uint8(f))
	}
	return factionNames[f]
}

// ParseFaction accepts a faction name or its numeric id.
func ParseFaction(value string) (Faction, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for i, name := range factionNames {
		if name == trimmed {
			return Faction(i), nil
		}
	}
	id, err := strconv.ParseUint(trimmed, 10, 8)
	if err != nil || Faction(id) > MaxFaction {
		return FactionNone, fmt.Errorf("unknown faction %q", value)
	}
	return Faction(id), nil
}

// Params holds the owner-tunable reward parameters of a jungle.
type Params struct {
	MaximumRarity           uint64   `json:"maximumRarity"`
	MaximumRarityMultiplier uint64   `json:"maximumRarityMultiplier"`
	BaseWeeklyEmissions     uint64   `json:"baseWeeklyEmissions"`
	Start                   int64    `json:"start"`
	Root                    [32]byte `json:"root"`
}

// Config is the global state of one staking program instance.
type Config struct {
	Key            types.Identity `json:"key"`
	Owner          types.Identity `json:"owner"`
	Escrow         types.Identity `json:"escrow"`
	Mint           types.Identity `json:"mint"`
	RewardsAccount types.Identity `json:"rewardsAccount"`
	AnimalsStaked  uint64         `json:"animalsStaked"`
	// Rarities above MaximumRarity are cut off.
	MaximumRarity uint64 `json:"maximumRarity"`
	// Basis points applied at MaximumRarity.
	MaximumRarityMultiplier uint64   `json:"maximumRarityMultiplier"`
	BaseWeeklyEmissions     uint64   `json:"baseWeeklyEmissions"`
	Start                   int64    `json:"start"`
	Root                    [32]byte `json:"root"`
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Params returns the owner-tunable subset of the config.
func (c *Config) Params() Params {
	return Params{
		MaximumRarity:           c.MaximumRarity,
		MaximumRarityMultiplier: c.MaximumRarityMultiplier,
		BaseWeeklyEmissions:     c.BaseWeeklyEmissions,
		Start:                   c.Start,
		Root:                    c.Root,
	}
}

func (c *Config) apply(p Params) {
	c.MaximumRarity = p.MaximumRarity
	c.MaximumRarityMultiplier = p.MaximumRarityMultiplier
	c.BaseWeeklyEmissions = p.BaseWeeklyEmissions
	c.Start = p.Start
	c.Root = p.Root
}

// Animal is the staking record of a single asset. It exists exactly while
// the asset sits in the jungle escrow.
type Animal struct {
	Jungle    types.Identity `json:"jungle"`
	Mint      types.Identity `json:"mint"`
	Staker    types.Identity `json:"staker"`
	Rarity    uint64         `json:"rarity"`
	Faction   Faction        `json:"faction"`
	LastClaim int64          `json:"lastClaim"`
}

// Clone returns a copy of the animal record.
func (a *Animal) Clone() *Animal {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
