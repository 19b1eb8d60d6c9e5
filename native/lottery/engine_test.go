package lottery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"jungle/core/types"
	"jungle/native/bank"
)

type participationKey struct {
	lottery types.Identity
	index   uint64
	player  types.Identity
}

type roundKey struct {
	lottery types.Identity
	index   uint64
}

type mockState struct {
	lotteries      map[types.Identity]*Config
	rounds         map[roundKey]*Round
	participations map[participationKey]*Participation
	balances       map[[2]types.Identity]uint64
}

func newMockState() *mockState {
	return &mockState{
		lotteries:      make(map[types.Identity]*Config),
		rounds:         make(map[roundKey]*Round),
		participations: make(map[participationKey]*Participation),
		balances:       make(map[[2]types.Identity]uint64),
	}
}

func (m *mockState) LotteryGet(key types.Identity) (*Config, bool, error) {
	cfg, ok := m.lotteries[key]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) LotteryPut(cfg *Config) error {
	m.lotteries[cfg.Key] = cfg.Clone()
	return nil
}

func (m *mockState) RoundGet(key types.Identity, index uint64) (*Round, bool, error) {
	round, ok := m.rounds[roundKey{key, index}]
	if !ok {
		return nil, false, nil
	}
	return round.Clone(), true, nil
}

func (m *mockState) RoundPut(round *Round) error {
	m.rounds[roundKey{round.Lottery, round.Index}] = round.Clone()
	return nil
}

func (m *mockState) ParticipationGet(key types.Identity, index uint64, player types.Identity) (*Participation, bool, error) {
	p, ok := m.participations[participationKey{key, index, player}]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) ParticipationPut(p *Participation) error {
	m.participations[participationKey{p.Lottery, p.Index, p.Player}] = p.Clone()
	return nil
}

func (m *mockState) ParticipationDelete(key types.Identity, index uint64, player types.Identity) error {
	delete(m.participations, participationKey{key, index, player})
	return nil
}

func (m *mockState) BalanceGet(holder, mint types.Identity) (uint64, error) {
	return m.balances[[2]types.Identity{holder, mint}], nil
}

func (m *mockState) BalancePut(holder, mint types.Identity, amount uint64) error {
	m.balances[[2]types.Identity{holder, mint}] = amount
	return nil
}

// start is a multiple of 8, so a rollover at start+period+k draws faction k%8+1.
const (
	start  = int64(1_700_000_000)
	period = uint64(86_400)
)

type fixture struct {
	t        *testing.T
	state    *mockState
	ledger   *bank.Ledger
	engine   *Engine
	now      int64
	owner    types.Identity
	key      types.Identity
	mint     types.Identity
	treasury types.Identity
	funder   types.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		state:    newMockState(),
		now:      start,
		owner:    types.Identity{0x01},
		key:      types.Identity{0x02},
		mint:     types.Identity{0x03},
		treasury: types.Identity{0x04},
		funder:   types.Identity{0x05},
	}
	f.ledger = bank.NewLedger(f.state)
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetLedger(f.ledger)
	f.engine.SetNowFunc(func() int64 { return f.now })
	_, err := f.engine.Initialize(f.owner, f.key, f.mint, f.treasury, period, start)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Mint(f.funder, bank.NativeMint, 1_000_000))
	return f
}

func (f *fixture) player(id byte, tickets uint64) types.Identity {
	f.t.Helper()
	p := types.Identity{0x10, id}
	require.NoError(f.t, f.ledger.Mint(p, f.mint, tickets))
	return p
}

func (f *fixture) fund(amount uint64) {
	f.t.Helper()
	_, err := f.engine.FundPot(f.funder, f.key, amount)
	require.NoError(f.t, err)
}

// rollover advances the clock to the end of the current round plus offset
// and starts the next round.
func (f *fixture) rollover(offset int64) *Round {
	f.t.Helper()
	cfg, err := f.engine.Lottery(f.key)
	require.NoError(f.t, err)
	f.now = cfg.LastTimestamp + int64(cfg.Period) + offset
	next, err := f.engine.NewLotteryRound(f.key)
	require.NoError(f.t, err)
	return next
}

func (f *fixture) lottery() *Config {
	f.t.Helper()
	cfg, err := f.engine.Lottery(f.key)
	require.NoError(f.t, err)
	return cfg
}

func (f *fixture) balance(holder, mint types.Identity) uint64 {
	f.t.Helper()
	got, err := f.ledger.Balance(holder, mint)
	require.NoError(f.t, err)
	return got
}

func single(faction int, amount uint64) Spendings {
	var s Spendings
	s[faction-1] = amount
	return s
}

func TestInitializeCreatesRoundZero(t *testing.T) {
	f := newFixture(t)
	cfg := f.lottery()
	require.EqualValues(t, 0, cfg.LastRound)
	require.Equal(t, start, cfg.LastTimestamp)
	require.Zero(t, cfg.UnclaimedPot)

	round, err := f.engine.Round(f.key, 0)
	require.NoError(t, err)
	require.Equal(t, start, round.Start)
	require.Zero(t, round.Pot)
	require.Zero(t, round.Winner)

	_, err = f.engine.Initialize(f.owner, f.key, f.mint, f.treasury, period, start)
	require.Error(t, err)
	_, err = f.engine.Initialize(f.owner, types.Identity{0x99}, f.mint, f.treasury, 0, start)
	require.ErrorIs(t, err, errInvalidPeriod)
}

func TestSetLotteryIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	stranger := types.Identity{0xEE}
	_, err := f.engine.SetLottery(stranger, f.key, stranger, f.mint, f.treasury, period, start)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.engine.SetLottery(f.owner, f.key, stranger, f.mint, f.treasury, 0, start)
	require.ErrorIs(t, err, errInvalidPeriod)

	cfg, err := f.engine.SetLottery(f.owner, f.key, stranger, f.mint, stranger, 3600, start+10)
	require.NoError(t, err)
	require.Equal(t, stranger, cfg.Owner)
	require.Equal(t, stranger, cfg.Treasury)
	require.EqualValues(t, 3600, cfg.Period)
	require.Equal(t, start+10, cfg.LastTimestamp)
}

func TestParticipateChargesTreasuryAndAccumulates(t *testing.T) {
	f := newFixture(t)
	alice := f.player(1, 1_000)

	p, err := f.engine.Participate(alice, f.key, 0, Spendings{10, 20, 0, 0, 0, 0, 0, 5})
	require.NoError(t, err)
	require.Equal(t, Spendings{10, 20, 0, 0, 0, 0, 0, 5}, p.Spendings)
	require.EqualValues(t, 965, f.balance(alice, f.mint))
	require.EqualValues(t, 35, f.balance(f.treasury, f.mint))

	p, err = f.engine.UpdateParticipation(alice, f.key, 0, single(2, 5))
	require.NoError(t, err)
	require.EqualValues(t, 25, p.Spendings[1])

	bob := f.player(2, 1_000)
	_, err = f.engine.UpdateParticipation(bob, f.key, 0, single(1, 5))
	require.ErrorIs(t, err, errParticipationNotFound)
	_, err = f.engine.Participate(bob, f.key, 0, single(1, 5))
	require.NoError(t, err)

	round, err := f.engine.Round(f.key, 0)
	require.NoError(t, err)
	require.Equal(t, Spendings{15, 25, 0, 0, 0, 0, 0, 5}, round.Spendings)

	_, err = f.engine.Participate(bob, f.key, 0, single(1, 5_000))
	require.ErrorIs(t, err, bank.ErrInsufficientBalance)
}

func TestParticipateAfterWindowFailsRoundFinished(t *testing.T) {
	f := newFixture(t)
	alice := f.player(1, 100)

	f.now = start + int64(period)
	_, err := f.engine.Participate(alice, f.key, 0, single(1, 1))
	require.NoError(t, err, "the window is inclusive of its last second")

	f.now++
	_, err = f.engine.Participate(alice, f.key, 0, single(1, 1))
	require.ErrorIs(t, err, ErrRoundFinished)
	_, err = f.engine.UpdateParticipation(alice, f.key, 0, single(1, 1))
	require.ErrorIs(t, err, ErrRoundFinished)

	status, err := f.engine.RoundStatus(f.key, 0)
	require.NoError(t, err)
	require.Equal(t, RoundStatusAwaitingRollover, status)
}

func TestRolloverIsRateLimited(t *testing.T) {
	f := newFixture(t)
	f.now = start + int64(period) - 1
	_, err := f.engine.NewLotteryRound(f.key)
	require.ErrorIs(t, err, ErrTooSoonForNewRound)

	f.now = start + int64(period) + 3
	next, err := f.engine.NewLotteryRound(f.key)
	require.NoError(t, err)
	require.EqualValues(t, 1, next.Index)
	require.Equal(t, start+int64(period), next.Start)

	previous, err := f.engine.Round(f.key, 0)
	require.NoError(t, err)
	require.EqualValues(t, 4, previous.Winner)

	f.now += int64(period) - 10
	_, err = f.engine.NewLotteryRound(f.key)
	require.ErrorIs(t, err, ErrTooSoonForNewRound)

	cfg := f.lottery()
	require.EqualValues(t, 1, cfg.LastRound)
	previous, err = f.engine.Round(f.key, 0)
	require.NoError(t, err)
	require.EqualValues(t, 4, previous.Winner, "winner is drawn once")
	_, err = f.engine.Round(f.key, 2)
	require.Error(t, err)

	status, err := f.engine.RoundStatus(f.key, 0)
	require.NoError(t, err)
	require.Equal(t, RoundStatusFinalized, status)
}

func TestScheduleMustFitInTimestamp(t *testing.T) {
	f := newFixture(t)
	late := int64(math.MaxInt64) - 10
	_, err := f.engine.Initialize(f.owner, types.Identity{0x09}, f.mint, f.treasury, period, late)
	require.ErrorIs(t, err, ErrInvalidSchedule)
	_, err = f.engine.Lottery(types.Identity{0x09})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.SetLottery(f.owner, f.key, f.owner, f.mint, f.treasury, period, late)
	require.ErrorIs(t, err, ErrInvalidSchedule)
	require.Equal(t, start, f.lottery().LastTimestamp)
	_, err = f.engine.NewLotteryRound(f.key)
	require.ErrorIs(t, err, ErrTooSoonForNewRound)

	// the last schedule that still fits allows exactly one more rollover
	edge := int64(math.MaxInt64) - int64(period)
	_, err = f.engine.SetLottery(f.owner, f.key, f.owner, f.mint, f.treasury, period, edge)
	require.NoError(t, err)
	f.now = edge
	_, err = f.engine.NewLotteryRound(f.key)
	require.ErrorIs(t, err, ErrTooSoonForNewRound)

	f.now = math.MaxInt64
	next, err := f.engine.NewLotteryRound(f.key)
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt64), next.Start)
	status, err := f.engine.RoundStatus(f.key, next.Index)
	require.NoError(t, err)
	require.Equal(t, RoundStatusOpen, status)

	_, err = f.engine.NewLotteryRound(f.key)
	require.ErrorIs(t, err, ErrInvalidSchedule)
	require.EqualValues(t, 1, f.lottery().LastRound)
}

func TestRoundEndDetectsOverflow(t *testing.T) {
	end, ok := RoundEnd(start, period)
	require.True(t, ok)
	require.Equal(t, start+int64(period), end)
	_, ok = RoundEnd(math.MaxInt64-1, 2)
	require.False(t, ok)
	_, ok = RoundEnd(0, math.MaxUint64)
	require.False(t, ok)
	end, ok = RoundEnd(math.MinInt64, 1)
	require.True(t, ok)
	require.Equal(t, int64(math.MinInt64+1), end)
}

func TestDrawWinnerUsesEuclideanModulo(t *testing.T) {
	require.EqualValues(t, 1, DrawWinner(0))
	require.EqualValues(t, 8, DrawWinner(7))
	require.EqualValues(t, 1, DrawWinner(8))
	require.EqualValues(t, 8, DrawWinner(-1))
	for ts := int64(-20); ts < 20; ts++ {
		w := DrawWinner(ts)
		require.GreaterOrEqual(t, w, uint8(1))
		require.LessOrEqual(t, w, uint8(FactionCount))
	}
}

func TestClaimBeforeRolloverFailsRoundNotFinished(t *testing.T) {
	f := newFixture(t)
	alice := f.player(1, 100)
	_, err := f.engine.Participate(alice, f.key, 0, single(1, 100))
	require.NoError(t, err)

	_, err = f.engine.ClaimParticipation(alice, f.key, 0)
	require.ErrorIs(t, err, ErrRoundNotFinished)

	f.now = start + int64(period) + 1
	_, err = f.engine.ClaimParticipation(alice, f.key, 0)
	require.ErrorIs(t, err, ErrRoundNotFinished, "window elapsed but no winner drawn yet")
}

func TestWinningPotIsSharedProportionally(t *testing.T) {
	f := newFixture(t)
	f.fund(1_000)
	round := f.rollover(0)
	require.EqualValues(t, 1_000, round.Pot)
	require.EqualValues(t, 1_000, f.lottery().UnclaimedPot)

	alice := f.player(1, 1_000)
	bob := f.player(2, 1_000)
	carol := f.player(3, 1_000)
	_, err := f.engine.Participate(alice, f.key, 1, single(3, 1))
	require.NoError(t, err)
	_, err = f.engine.Participate(bob, f.key, 1, single(3, 2))
	require.NoError(t, err)
	_, err = f.engine.Participate(carol, f.key, 1, single(5, 50))
	require.NoError(t, err)

	f.rollover(2) // faction 3 wins
	drawn, err := f.engine.Round(f.key, 1)
	require.NoError(t, err)
	require.EqualValues(t, 3, drawn.Winner)

	preview, err := f.engine.PreviewPayout(f.key, 1, bob)
	require.NoError(t, err)
	require.EqualValues(t, 666, preview)

	paidBob, err := f.engine.ClaimParticipation(bob, f.key, 1)
	require.NoError(t, err)
	require.EqualValues(t, 666, paidBob)
	paidAlice, err := f.engine.ClaimParticipation(alice, f.key, 1)
	require.NoError(t, err)
	require.EqualValues(t, 334*1/3, paidAlice, "shares apply to the remaining pot")
	paidCarol, err := f.engine.ClaimParticipation(carol, f.key, 1)
	require.NoError(t, err)
	require.Zero(t, paidCarol)

	require.LessOrEqual(t, paidAlice+paidBob+paidCarol, uint64(1_000))
	require.Equal(t, paidBob, f.balance(bob, bank.NativeMint))
	require.Equal(t, paidAlice, f.balance(alice, bank.NativeMint))

	cfg := f.lottery()
	escrow := f.balance(cfg.Escrow, bank.NativeMint)
	require.EqualValues(t, 1_000-666-111, escrow)
	require.LessOrEqual(t, cfg.UnclaimedPot, escrow)

	_, err = f.engine.ClaimParticipation(bob, f.key, 1)
	require.ErrorIs(t, err, errParticipationNotFound)
}

func TestPayoutsNeverExceedPotInAnyOrder(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}}
	for _, order := range orders {
		f := newFixture(t)
		f.fund(997)
		f.rollover(0)
		players := []types.Identity{f.player(1, 100), f.player(2, 100), f.player(3, 100)}
		weights := []uint64{7, 11, 13}
		for i, p := range players {
			_, err := f.engine.Participate(p, f.key, 1, single(1, weights[i]))
			require.NoError(t, err)
		}
		f.rollover(0) // faction 1 wins
		var paid uint64
		for _, i := range order {
			amount, err := f.engine.ClaimParticipation(players[i], f.key, 1)
			require.NoError(t, err)
			paid += amount
		}
		require.LessOrEqual(t, paid, uint64(997))
		round, err := f.engine.Round(f.key, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(997)-paid, round.Pot)
	}
}

func TestEmptyWinningFactionRollsPotIntoUnclaimed(t *testing.T) {
	f := newFixture(t)
	f.fund(100)
	f.rollover(0)
	alice := f.player(1, 100)
	_, err := f.engine.Participate(alice, f.key, 1, single(1, 100))
	require.NoError(t, err)

	f.fund(30)
	next := f.rollover(1) // faction 2 wins, nobody played it
	require.Zero(t, next.Pot, "the previous pot is earmarked before the new pot is computed")
	require.EqualValues(t, 130, f.lottery().UnclaimedPot)

	paid, err := f.engine.ClaimParticipation(alice, f.key, 1)
	require.NoError(t, err)
	require.Zero(t, paid)
	require.EqualValues(t, 130, f.lottery().UnclaimedPot)
}

func TestEndToEndSingleParticipant(t *testing.T) {
	for offset := int64(0); offset < FactionCount; offset++ {
		f := newFixture(t)
		alice := f.player(1, 100)
		f.fund(500)
		f.rollover(0)
		_, err := f.engine.Participate(alice, f.key, 1, Spendings{100, 0, 0, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		f.rollover(offset + 1)

		round, err := f.engine.Round(f.key, 1)
		require.NoError(t, err)
		paid, err := f.engine.ClaimParticipation(alice, f.key, 1)
		require.NoError(t, err)
		if round.Winner == 1 {
			require.EqualValues(t, 500, paid)
			require.EqualValues(t, 0, f.lottery().UnclaimedPot)
		} else {
			require.Zero(t, paid)
			require.EqualValues(t, 500, f.lottery().UnclaimedPot)
		}
	}
}

func TestParticipateInSupersededRoundFails(t *testing.T) {
	f := newFixture(t)
	alice := f.player(1, 100)
	f.rollover(0)
	// the clock still sits on the last second of round 0's window
	_, err := f.engine.Participate(alice, f.key, 0, single(1, 1))
	require.ErrorIs(t, err, ErrRoundFinished)
	_, err = f.engine.Participate(alice, f.key, 1, single(1, 1))
	require.NoError(t, err)
}

func TestRoundStatusText(t *testing.T) {
	for _, status := range []RoundStatus{RoundStatusOpen, RoundStatusAwaitingRollover, RoundStatusFinalized} {
		text, err := status.MarshalText()
		require.NoError(t, err)
		var parsed RoundStatus
		require.NoError(t, parsed.UnmarshalText(text))
		require.Equal(t, status, parsed)
	}
	var bogus RoundStatus
	require.Error(t, bogus.UnmarshalText([]byte("pending")))
}
