package jungle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jungle/core/events"
	"jungle/core/types"
	"jungle/crypto"
	"jungle/native/bank"
)

type mockState struct {
	jungles  map[types.Identity]*Config
	animals  map[types.Identity]*Animal
	balances map[[2]types.Identity]uint64
}

func newMockState() *mockState {
	return &mockState{
		jungles:  make(map[types.Identity]*Config),
		animals:  make(map[types.Identity]*Animal),
		balances: make(map[[2]types.Identity]uint64),
	}
}

func (m *mockState) JungleGet(key types.Identity) (*Config, bool, error) {
	cfg, ok := m.jungles[key]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) JunglePut(cfg *Config) error {
	m.jungles[cfg.Key] = cfg.Clone()
	return nil
}

func (m *mockState) AnimalGet(mint types.Identity) (*Animal, bool, error) {
	animal, ok := m.animals[mint]
	if !ok {
		return nil, false, nil
	}
	return animal.Clone(), true, nil
}

func (m *mockState) AnimalPut(animal *Animal) error {
	m.animals[animal.Mint] = animal.Clone()
	return nil
}

func (m *mockState) AnimalDelete(mint types.Identity) error {
	delete(m.animals, mint)
	return nil
}

func (m *mockState) BalanceGet(holder, mint types.Identity) (uint64, error) {
	return m.balances[[2]types.Identity{holder, mint}], nil
}

func (m *mockState) BalancePut(holder, mint types.Identity, amount uint64) error {
	m.balances[[2]types.Identity{holder, mint}] = amount
	return nil
}

type listedAnimal struct {
	mint    types.Identity
	rarity  uint64
	faction uint64
}

type fixture struct {
	t       *testing.T
	state   *mockState
	ledger  *bank.Ledger
	engine  *Engine
	events  *events.Buffer
	now     int64
	owner   types.Identity
	key     types.Identity
	mint    types.Identity
	animals []listedAnimal
	tree    *crypto.MerkleTree
}

const fixtureStart = int64(1_700_000_000)

func newFixture(t *testing.T, count int) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		state:  newMockState(),
		events: &events.Buffer{},
		now:    fixtureStart,
		owner:  types.Identity{0x01},
		key:    types.Identity{0x02},
		mint:   types.Identity{0x03},
	}
	f.ledger = bank.NewLedger(f.state)
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetLedger(f.ledger)
	f.engine.SetEmitter(f.events)
	f.engine.SetNowFunc(func() int64 { return f.now })

	leaves := make([][32]byte, count)
	for i := 0; i < count; i++ {
		a := listedAnimal{mint: types.Identity{0xA0, byte(i)}, rarity: uint64(i * 10), faction: uint64(i % 9)}
		f.animals = append(f.animals, a)
		leaves[i] = crypto.AllowListLeaf(a.mint, a.rarity, a.faction)
	}
	tree, err := crypto.NewMerkleTree(leaves)
	require.NoError(t, err)
	f.tree = tree
	return f
}

func (f *fixture) params() Params {
	return Params{
		MaximumRarity:           100,
		MaximumRarityMultiplier: 20_000,
		BaseWeeklyEmissions:     604_800_000,
		Start:                   fixtureStart,
		Root:                    f.tree.Root(),
	}
}

func (f *fixture) init() *Config {
	f.t.Helper()
	cfg, err := f.engine.Initialize(f.owner, f.key, f.mint, f.params())
	require.NoError(f.t, err)
	return cfg
}

func (f *fixture) give(holder types.Identity, i int) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Mint(holder, f.animals[i].mint, 1))
}

func (f *fixture) stake(staker types.Identity, i int) (*Animal, error) {
	proof, ok := f.tree.Proof(i)
	require.True(f.t, ok)
	a := f.animals[i]
	return f.engine.StakeAnimal(staker, f.key, a.mint, proof, a.rarity, a.faction)
}

func (f *fixture) balance(holder, mint types.Identity) uint64 {
	f.t.Helper()
	got, err := f.ledger.Balance(holder, mint)
	require.NoError(f.t, err)
	return got
}

func TestInitializeRejectsLowMultiplier(t *testing.T) {
	f := newFixture(t, 2)
	params := f.params()
	params.MaximumRarityMultiplier = 9_999
	_, err := f.engine.Initialize(f.owner, f.key, f.mint, params)
	require.ErrorIs(t, err, ErrInvalidMultiplier)

	cfg := f.init()
	require.Equal(t, crypto.EscrowIdentity(f.key), cfg.Escrow)
	require.Equal(t, crypto.RewardsIdentity(f.key, f.mint), cfg.RewardsAccount)
	require.Zero(t, cfg.AnimalsStaked)

	_, err = f.engine.Initialize(f.owner, f.key, f.mint, f.params())
	require.Error(t, err)
}

func TestSetJungleIsOwnerOnly(t *testing.T) {
	f := newFixture(t, 2)
	f.init()
	stranger := types.Identity{0xEE}
	newOwner := types.Identity{0xEF}

	params := f.params()
	params.BaseWeeklyEmissions = 1
	_, err := f.engine.SetJungle(stranger, f.key, newOwner, params)
	require.ErrorIs(t, err, ErrUnauthorized)

	params.MaximumRarityMultiplier = 1
	_, err = f.engine.SetJungle(f.owner, f.key, newOwner, params)
	require.ErrorIs(t, err, ErrInvalidMultiplier)

	params.MaximumRarityMultiplier = 30_000
	cfg, err := f.engine.SetJungle(f.owner, f.key, newOwner, params)
	require.NoError(t, err)
	require.Equal(t, newOwner, cfg.Owner)
	require.EqualValues(t, 1, cfg.BaseWeeklyEmissions)
	require.EqualValues(t, 30_000, cfg.MaximumRarityMultiplier)
}

func TestStakeBeforeStartFailsTooEarly(t *testing.T) {
	f := newFixture(t, 3)
	f.init()
	staker := types.Identity{0x10}
	f.give(staker, 1)
	f.now = fixtureStart - 1

	_, err := f.stake(staker, 1)
	require.ErrorIs(t, err, ErrTooEarly)
}

func TestStakeWithMismatchedAttributesFailsInvalidProof(t *testing.T) {
	f := newFixture(t, 5)
	f.init()
	staker := types.Identity{0x10}
	f.give(staker, 2)

	proof, _ := f.tree.Proof(2)
	a := f.animals[2]
	_, err := f.engine.StakeAnimal(staker, f.key, a.mint, proof, a.rarity+1, a.faction)
	require.ErrorIs(t, err, ErrInvalidProof)
	_, err = f.engine.StakeAnimal(staker, f.key, a.mint, proof, a.rarity, a.faction+1)
	require.ErrorIs(t, err, ErrInvalidProof)

	wrongProof, _ := f.tree.Proof(3)
	_, err = f.engine.StakeAnimal(staker, f.key, a.mint, wrongProof, a.rarity, a.faction)
	require.ErrorIs(t, err, ErrInvalidProof)

	_, err = f.engine.StakeAnimal(staker, f.key, a.mint, [][32]byte{{0xFF}}, a.rarity, a.faction)
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestStakeClaimUnstakeLifecycle(t *testing.T) {
	f := newFixture(t, 8)
	cfg := f.init()
	staker := types.Identity{0x10}
	f.give(staker, 5)
	require.NoError(t, f.ledger.Mint(cfg.RewardsAccount, f.mint, 10_000_000_000))

	animal, err := f.stake(staker, 5)
	require.NoError(t, err)
	require.Equal(t, fixtureStart, animal.LastClaim)
	require.Equal(t, Faction(5), animal.Faction)
	require.Zero(t, f.balance(staker, animal.Mint))
	require.EqualValues(t, 1, f.balance(cfg.Escrow, animal.Mint))

	stored, err := f.engine.Jungle(f.key)
	require.NoError(t, err)
	require.EqualValues(t, 1, stored.AnimalsStaked)

	_, err = f.stake(staker, 5)
	require.Error(t, err, "an asset can only be staked once")

	f.now += SecondsPerWeek
	pending, err := f.engine.PendingReward(animal.Mint)
	require.NoError(t, err)
	// rarity 50 of 100 -> 15000 bps
	require.EqualValues(t, 907_200_000, pending)

	stranger := types.Identity{0x11}
	_, err = f.engine.ClaimStaking(stranger, animal.Mint)
	require.ErrorIs(t, err, ErrUnauthorized)

	claimed, err := f.engine.ClaimStaking(staker, animal.Mint)
	require.NoError(t, err)
	require.Equal(t, pending, claimed)
	require.Equal(t, claimed, f.balance(staker, f.mint))

	again, err := f.engine.ClaimStaking(staker, animal.Mint)
	require.NoError(t, err)
	require.Zero(t, again, "claiming twice at the same instant accrues nothing")

	stored2, err := f.engine.Animal(animal.Mint)
	require.NoError(t, err)
	require.Equal(t, f.now, stored2.LastClaim)

	require.ErrorIs(t, f.engine.UnstakeAnimal(stranger, animal.Mint), ErrUnauthorized)
	require.NoError(t, f.engine.UnstakeAnimal(staker, animal.Mint))
	require.EqualValues(t, 1, f.balance(staker, animal.Mint))
	require.Zero(t, f.balance(cfg.Escrow, animal.Mint))

	stored, err = f.engine.Jungle(f.key)
	require.NoError(t, err)
	require.Zero(t, stored.AnimalsStaked)

	_, err = f.engine.ClaimStaking(staker, animal.Mint)
	require.Error(t, err)
	require.Error(t, f.engine.UnstakeAnimal(staker, animal.Mint))

	kinds := make([]string, 0)
	for _, evt := range f.events.Events() {
		kinds = append(kinds, evt.EventType())
	}
	require.Contains(t, kinds, EventTypeAnimalStaked)
	require.Contains(t, kinds, EventTypeRewardsClaimed)
	require.Contains(t, kinds, EventTypeAnimalUnstaked)
}

func TestStakedCountTracksStakesMinusUnstakes(t *testing.T) {
	f := newFixture(t, 9)
	f.init()
	staker := types.Identity{0x10}
	for i := range f.animals {
		f.give(staker, i)
		_, err := f.stake(staker, i)
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, f.engine.UnstakeAnimal(staker, f.animals[i].mint))
	}
	cfg, err := f.engine.Jungle(f.key)
	require.NoError(t, err)
	require.EqualValues(t, 9-4, cfg.AnimalsStaked)
	require.Len(t, f.state.animals, 5)
}

func TestStakeWithoutOwningAssetFails(t *testing.T) {
	f := newFixture(t, 2)
	f.init()
	staker := types.Identity{0x10}
	_, err := f.stake(staker, 0)
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
	_, err = f.engine.Animal(f.animals[0].mint)
	require.Error(t, err)
}

func TestRewardsAreSharedByStakedCount(t *testing.T) {
	f := newFixture(t, 11)
	cfg := f.init()
	require.NoError(t, f.ledger.Mint(cfg.RewardsAccount, f.mint, 10_000_000_000))
	a, b := types.Identity{0x10}, types.Identity{0x20}
	f.give(a, 10)
	f.give(b, 9)
	_, err := f.stake(a, 10) // rarity 100
	require.NoError(t, err)
	_, err = f.stake(b, 9) // rarity 90
	require.NoError(t, err)

	f.now += SecondsPerWeek
	got, err := f.engine.ClaimStaking(a, f.animals[10].mint)
	require.NoError(t, err)
	require.EqualValues(t, 604_800_000, got)
}

func TestWithdrawRewardsIsOwnerOnly(t *testing.T) {
	f := newFixture(t, 2)
	cfg := f.init()
	funder := types.Identity{0x30}
	require.NoError(t, f.ledger.Mint(funder, f.mint, 500))
	_, err := f.engine.FundRewards(funder, f.key, 500)
	require.NoError(t, err)

	pool, err := f.engine.RewardPoolBalance(f.key)
	require.NoError(t, err)
	require.EqualValues(t, 500, pool)

	require.ErrorIs(t, f.engine.WithdrawRewards(funder, f.key, 100), ErrUnauthorized)
	require.NoError(t, f.engine.WithdrawRewards(f.owner, f.key, 200))
	require.EqualValues(t, 200, f.balance(f.owner, f.mint))
	require.EqualValues(t, 300, f.balance(cfg.RewardsAccount, f.mint))
	require.ErrorIs(t, f.engine.WithdrawRewards(f.owner, f.key, 301), bank.ErrInsufficientBalance)
}

func TestFactionString(t *testing.T) {
	require.Equal(t, "serengeti", FactionSerengeti.String())
	require.Equal(t, "extinct", MaxFaction.String())
	require.Equal(t, "faction(9)", Faction(9).String())
}

func TestParseFaction(t *testing.T) {
	f, err := ParseFaction("Bird")
	require.NoError(t, err)
	require.Equal(t, FactionBird, f)
	f, err = ParseFaction("8")
	require.NoError(t, err)
	require.Equal(t, FactionExtinct, f)
	f, err = ParseFaction("none")
	require.NoError(t, err)
	require.Equal(t, FactionNone, f)
	_, err = ParseFaction("9")
	require.Error(t, err)
	_, err = ParseFaction("dragon")
	require.Error(t, err)
}
