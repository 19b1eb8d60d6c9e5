package core

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"jungle/core/events"
	"jungle/core/types"
	"jungle/crypto"
	"jungle/native/bank"
	"jungle/native/jungle"
	"jungle/native/lottery"
	"jungle/storage"
)

const genesis = int64(1_700_000_000)

type testNode struct {
	*Node
	now  int64
	sink *events.Buffer
}

func newTestNode(t *testing.T, db storage.Database) *testNode {
	t.Helper()
	node, err := NewNode(db)
	require.NoError(t, err)
	tn := &testNode{Node: node, now: genesis, sink: &events.Buffer{}}
	node.SetNowFunc(func() int64 { return tn.now })
	node.SetEmitter(tn.sink)
	node.SetLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return tn
}

func (tn *testNode) eventTypes() []string {
	var out []string
	for _, evt := range tn.sink.Events() {
		out = append(out, evt.EventType())
	}
	return out
}

type stakingWorld struct {
	owner  types.Identity
	key    types.Identity
	mint   types.Identity
	staker types.Identity
	asset  types.Identity
	proof  [][32]byte
	rarity uint64
}

func setupJungle(t *testing.T, tn *testNode) stakingWorld {
	t.Helper()
	w := stakingWorld{
		owner:  types.Identity{0x01},
		key:    types.Identity{0x02},
		mint:   types.Identity{0x03},
		staker: types.Identity{0x04},
		asset:  types.Identity{0xA0},
		rarity: 50,
	}
	leaves := [][32]byte{
		crypto.AllowListLeaf(w.asset, w.rarity, uint64(jungle.FactionBird)),
		crypto.AllowListLeaf(types.Identity{0xA1}, 10, uint64(jungle.FactionReptile)),
		crypto.AllowListLeaf(types.Identity{0xA2}, 90, uint64(jungle.FactionMonkey)),
	}
	tree, err := crypto.NewMerkleTree(leaves)
	require.NoError(t, err)
	w.proof, _ = tree.Proof(0)

	_, err = tn.InitJungle(w.owner, w.key, w.mint, jungle.Params{
		MaximumRarity:           100,
		MaximumRarityMultiplier: 20_000,
		BaseWeeklyEmissions:     604_800_000,
		Start:                   genesis,
		Root:                    tree.Root(),
	})
	require.NoError(t, err)
	require.NoError(t, tn.Mint(w.staker, w.asset, 1))
	return w
}

func TestNewNodeRequiresDatabase(t *testing.T) {
	_, err := NewNode(nil)
	require.Error(t, err)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	tn := newTestNode(t, storage.NewMemDB())
	w := setupJungle(t, tn)
	animal, err := tn.StakeAnimal(w.staker, w.key, w.asset, w.proof, w.rarity, uint64(jungle.FactionBird))
	require.NoError(t, err)

	tn.sink.Reset()
	tn.now += jungle.SecondsPerWeek
	// the pool is empty, so the transfer fails after LastClaim was updated
	_, err = tn.ClaimStaking(w.staker, w.asset)
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)

	stored, err := tn.Animal(w.asset)
	require.NoError(t, err)
	require.Equal(t, animal.LastClaim, stored.LastClaim)
	require.Empty(t, tn.sink.Events(), "aborted operations publish nothing")

	cfg, err := tn.Jungle(w.key)
	require.NoError(t, err)
	require.NoError(t, tn.Mint(cfg.RewardsAccount, w.mint, 1_000_000_000))
	paid, err := tn.ClaimStaking(w.staker, w.asset)
	require.NoError(t, err)
	require.EqualValues(t, 907_200_000, paid)
	require.Contains(t, tn.eventTypes(), jungle.EventTypeRewardsClaimed)
	require.Contains(t, tn.eventTypes(), events.TypeTransfer)
}

func TestContractBreachIsRecovered(t *testing.T) {
	tn := newTestNode(t, storage.NewMemDB())
	w := setupJungle(t, tn)
	_, err := tn.StakeAnimal(w.staker, w.key, w.asset, w.proof, w.rarity, uint64(jungle.FactionBird))
	require.NoError(t, err)

	tn.now -= 10
	_, err = tn.ClaimStaking(w.staker, w.asset)
	require.ErrorIs(t, err, ErrContractBreach)
	_, err = tn.PendingReward(w.asset)
	require.ErrorIs(t, err, ErrContractBreach)

	tn.now += 10
	_, err = tn.ClaimStaking(w.staker, w.asset)
	require.NoError(t, err, "the node keeps serving after a breach")
}

func TestStakeUnstakeThroughNode(t *testing.T) {
	tn := newTestNode(t, storage.NewMemDB())
	w := setupJungle(t, tn)

	tn.now = genesis - 1
	_, err := tn.StakeAnimal(w.staker, w.key, w.asset, w.proof, w.rarity, uint64(jungle.FactionBird))
	require.ErrorIs(t, err, jungle.ErrTooEarly)
	tn.now = genesis
	_, err = tn.StakeAnimal(w.staker, w.key, w.asset, w.proof, w.rarity+1, uint64(jungle.FactionBird))
	require.ErrorIs(t, err, jungle.ErrInvalidProof)

	_, err = tn.StakeAnimal(w.staker, w.key, w.asset, w.proof, w.rarity, uint64(jungle.FactionBird))
	require.NoError(t, err)
	cfg, err := tn.Jungle(w.key)
	require.NoError(t, err)
	require.EqualValues(t, 1, cfg.AnimalsStaked)
	held, err := tn.Balance(cfg.Escrow, w.asset)
	require.NoError(t, err)
	require.EqualValues(t, 1, held)

	require.NoError(t, tn.UnstakeAnimal(w.staker, w.asset))
	cfg, err = tn.Jungle(w.key)
	require.NoError(t, err)
	require.Zero(t, cfg.AnimalsStaked)
	back, err := tn.Balance(w.staker, w.asset)
	require.NoError(t, err)
	require.EqualValues(t, 1, back)
}

func TestLotteryEndToEnd(t *testing.T) {
	const period = uint64(86_400)
	owner, key := types.Identity{0x01}, types.Identity{0x02}
	ticket, treasury := types.Identity{0x03}, types.Identity{0x04}
	player, funder := types.Identity{0x10}, types.Identity{0x11}

	for _, offset := range []int64{1, 8} {
		tn := newTestNode(t, storage.NewMemDB())
		_, err := tn.InitLottery(owner, key, ticket, treasury, period, genesis)
		require.NoError(t, err)
		require.NoError(t, tn.Mint(player, ticket, 100))
		require.NoError(t, tn.Mint(funder, bank.NativeMint, 10_000))
		require.NoError(t, tn.FundPot(funder, key, 10_000))

		_, err = tn.Participate(player, key, 0, lottery.Spendings{100, 0, 0, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		spent, err := tn.Balance(treasury, ticket)
		require.NoError(t, err)
		require.EqualValues(t, 100, spent)

		// round 0 starts with an empty pot; the deposit lands in round 1
		tn.now = genesis + int64(period) + 1
		_, err = tn.ClaimParticipation(player, key, 0)
		require.ErrorIs(t, err, lottery.ErrRoundNotFinished)
		round1, err := tn.NewLotteryRound(key)
		require.NoError(t, err)
		require.EqualValues(t, 10_000, round1.Pot)
		_, err = tn.NewLotteryRound(key)
		require.ErrorIs(t, err, lottery.ErrTooSoonForNewRound)

		require.NoError(t, tn.Mint(player, ticket, 100))
		_, err = tn.Participate(player, key, 1, lottery.Spendings{100, 0, 0, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		tn.now = genesis + 2*int64(period) + offset
		_, err = tn.NewLotteryRound(key)
		require.NoError(t, err)

		drawn, err := tn.Round(key, 1)
		require.NoError(t, err)
		status, err := tn.RoundStatus(key, 1)
		require.NoError(t, err)
		require.Equal(t, lottery.RoundStatusFinalized, status)

		paid, err := tn.ClaimParticipation(player, key, 1)
		require.NoError(t, err)
		cfg, err := tn.Lottery(key)
		require.NoError(t, err)
		if drawn.Winner == 1 {
			require.EqualValues(t, 10_000, paid)
			require.Zero(t, cfg.UnclaimedPot)
		} else {
			require.Zero(t, paid)
			require.EqualValues(t, 10_000, cfg.UnclaimedPot)
		}
		escrow, err := tn.PotBalance(key)
		require.NoError(t, err)
		require.LessOrEqual(t, cfg.UnclaimedPot, escrow)

		_, err = tn.ClaimParticipation(player, key, 1)
		require.Error(t, err)
		require.Contains(t, tn.eventTypes(), lottery.EventTypeRoundStarted)
		require.Contains(t, tn.eventTypes(), lottery.EventTypeParticipationClaimed)
	}
}

func TestStatePersistsAcrossLevelDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	tn := newTestNode(t, db)
	w := setupJungle(t, tn)
	db.Close()

	reopened, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer reopened.Close()
	tn = newTestNode(t, reopened)
	cfg, err := tn.Jungle(w.key)
	require.NoError(t, err)
	require.Equal(t, w.owner, cfg.Owner)
	held, err := tn.Balance(w.staker, w.asset)
	require.NoError(t, err)
	require.EqualValues(t, 1, held)
}
