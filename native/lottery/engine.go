package lottery

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"jungle/core/events"
	"jungle/core/types"
	"jungle/crypto"
	"jungle/native/bank"
)

type engineState interface {
	LotteryGet(key types.Identity) (*Config, bool, error)
	LotteryPut(cfg *Config) error
	RoundGet(key types.Identity, index uint64) (*Round, bool, error)
	RoundPut(round *Round) error
	ParticipationGet(key types.Identity, index uint64, player types.Identity) (*Participation, bool, error)
	ParticipationPut(p *Participation) error
	ParticipationDelete(key types.Identity, index uint64, player types.Identity) error
}

type ledger interface {
	Balance(holder, mint types.Identity) (uint64, error)
	Transfer(from, to, mint types.Identity, amount uint64) error
}

// Engine runs the faction lottery. Tickets are paid in the lottery mint to
// the treasury while pots are paid in native value out of the escrow.
type Engine struct {
	state   engineState
	ledger  ledger
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a lottery engine with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the ledger used for ticket payments and payouts.
func (e *Engine) SetLedger(l ledger) { e.ledger = l }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func validateSchedule(period uint64, start int64) error {
	if period == 0 || period > math.MaxInt64 {
		return errInvalidPeriod
	}
	if _, ok := RoundEnd(start, period); !ok {
		return ErrInvalidSchedule
	}
	return nil
}

func (e *Engine) loadLottery(key types.Identity) (*Config, error) {
	cfg, ok, err := e.state.LotteryGet(key)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, errLotteryNotFound
	}
	return cfg, nil
}

func (e *Engine) loadRound(key types.Identity, index uint64) (*Round, error) {
	round, ok, err := e.state.RoundGet(key, index)
	if err != nil {
		return nil, err
	}
	if !ok || round == nil {
		return nil, errRoundNotFound
	}
	return round, nil
}

func (e *Engine) loadParticipation(key types.Identity, index uint64, player types.Identity) (*Participation, error) {
	p, ok, err := e.state.ParticipationGet(key, index, player)
	if err != nil {
		return nil, err
	}
	if !ok || p == nil {
		return nil, errParticipationNotFound
	}
	return p, nil
}

// Initialize creates the lottery identified by key together with round 0,
// which opens at start with an empty pot.
func (e *Engine) Initialize(owner, key, mint, treasury types.Identity, period uint64, start int64) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := validateSchedule(period, start); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.LotteryGet(key); err != nil {
		return nil, err
	} else if ok {
		return nil, errLotteryExists
	}
	cfg := &Config{
		Key:           key,
		Owner:         owner,
		Mint:          mint,
		Escrow:        crypto.EscrowIdentity(key),
		Treasury:      treasury,
		Period:        period,
		LastTimestamp: start,
	}
	round := &Round{Lottery: key, Index: 0, Start: start}
	if err := e.state.LotteryPut(cfg); err != nil {
		return nil, err
	}
	if err := e.state.RoundPut(round); err != nil {
		return nil, err
	}
	e.emit(LotteryInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// SetLottery overwrites the owner-controlled fields. The round clock is reset
// to start; existing rounds keep their own start time.
func (e *Engine) SetLottery(caller, key, newOwner, mint, treasury types.Identity, period uint64, start int64) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := validateSchedule(period, start); err != nil {
		return nil, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != caller {
		return nil, ErrUnauthorized
	}
	cfg.Owner = newOwner
	cfg.Mint = mint
	cfg.Treasury = treasury
	cfg.Period = period
	cfg.LastTimestamp = start
	if err := e.state.LotteryPut(cfg); err != nil {
		return nil, err
	}
	e.emit(LotteryUpdatedEvent(cfg))
	return cfg.Clone(), nil
}

// FundPot deposits amount native value into the lottery escrow. The deposit
// becomes part of the pot of the next round created.
func (e *Engine) FundPot(funder, key types.Identity, amount uint64) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(funder, cfg.Escrow, bank.NativeMint, amount); err != nil {
		return nil, err
	}
	e.emit(PotFundedEvent(cfg, funder, amount))
	return cfg.Clone(), nil
}

// Participate adds spendings to the player's participation in round index,
// creating the record on first contribution, and charges the total in the
// lottery mint to the treasury.
func (e *Engine) Participate(player, key types.Identity, index uint64, spendings Spendings) (*Participation, error) {
	return e.contribute(player, key, index, spendings, true)
}

// UpdateParticipation tops up an existing participation. It follows the same
// window rule as Participate.
func (e *Engine) UpdateParticipation(player, key types.Identity, index uint64, spendings Spendings) (*Participation, error) {
	return e.contribute(player, key, index, spendings, false)
}

func (e *Engine) contribute(player, key types.Identity, index uint64, spendings Spendings, create bool) (*Participation, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return nil, err
	}
	round, err := e.loadRound(key, index)
	if err != nil {
		return nil, err
	}
	if Status(cfg, round, e.now()) != RoundStatusOpen {
		return nil, ErrRoundFinished
	}
	participation, ok, err := e.state.ParticipationGet(key, index, player)
	if err != nil {
		return nil, err
	}
	if !ok || participation == nil {
		if !create {
			return nil, errParticipationNotFound
		}
		participation = &Participation{Lottery: key, Index: index, Player: player}
	}
	total, fits := spendings.Total()
	if !fits {
		return nil, errSpendingOverflow
	}
	for f, amount := range spendings {
		var carry uint64
		if round.Spendings[f], carry = bits.Add64(round.Spendings[f], amount, 0); carry != 0 {
			return nil, errSpendingOverflow
		}
		if participation.Spendings[f], carry = bits.Add64(participation.Spendings[f], amount, 0); carry != 0 {
			return nil, errSpendingOverflow
		}
	}
	if err := e.ledger.Transfer(player, cfg.Treasury, cfg.Mint, total); err != nil {
		return nil, err
	}
	if err := e.state.RoundPut(round); err != nil {
		return nil, err
	}
	if err := e.state.ParticipationPut(participation); err != nil {
		return nil, err
	}
	e.emit(ParticipationUpdatedEvent(cfg, participation, spendings))
	return participation.Clone(), nil
}

// NewLotteryRound draws the winner of the current round and opens the next
// one. The new pot is whatever the escrow holds beyond the unclaimed pot,
// after which the unclaimed pot tracks the whole escrow balance.
func (e *Engine) NewLotteryRound(key types.Identity) (*Round, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return nil, err
	}
	now := e.now()
	nextStart, ok := RoundEnd(cfg.LastTimestamp, cfg.Period)
	if !ok {
		return nil, ErrInvalidSchedule
	}
	if now < nextStart {
		return nil, ErrTooSoonForNewRound
	}
	previous, err := e.loadRound(key, cfg.LastRound)
	if err != nil {
		return nil, err
	}
	previous.Winner = DrawWinner(now)
	if previous.Spendings[previous.Winner-1] == 0 {
		var carry uint64
		if cfg.UnclaimedPot, carry = bits.Add64(cfg.UnclaimedPot, previous.Pot, 0); carry != 0 {
			return nil, errPotOverflow
		}
	}
	if cfg.LastRound == math.MaxUint64 {
		return nil, fmt.Errorf("lottery engine: round index exhausted")
	}
	cfg.LastRound++
	cfg.LastTimestamp = nextStart

	escrow, err := e.ledger.Balance(cfg.Escrow, bank.NativeMint)
	if err != nil {
		return nil, err
	}
	next := &Round{Lottery: key, Index: cfg.LastRound, Start: cfg.LastTimestamp}
	if escrow > cfg.UnclaimedPot {
		next.Pot = escrow - cfg.UnclaimedPot
	}
	cfg.UnclaimedPot = escrow

	if err := e.state.RoundPut(previous); err != nil {
		return nil, err
	}
	if err := e.state.RoundPut(next); err != nil {
		return nil, err
	}
	if err := e.state.LotteryPut(cfg); err != nil {
		return nil, err
	}
	e.emit(RoundStartedEvent(cfg, previous, next))
	return next.Clone(), nil
}

// ClaimParticipation settles the player's participation in a superseded
// round, pays out the capped share and removes the record.
func (e *Engine) ClaimParticipation(player, key types.Identity, index uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return 0, err
	}
	round, err := e.loadRound(key, index)
	if err != nil {
		return 0, err
	}
	if round.Index >= cfg.LastRound || round.Winner == 0 {
		return 0, ErrRoundNotFinished
	}
	participation, err := e.loadParticipation(key, index, player)
	if err != nil {
		return 0, err
	}
	amount := Payout(round, participation)
	if amount > cfg.UnclaimedPot {
		return 0, errPotUnderflow
	}
	round.Pot -= amount
	cfg.UnclaimedPot -= amount
	if err := e.ledger.Transfer(cfg.Escrow, player, bank.NativeMint, amount); err != nil {
		return 0, err
	}
	if err := e.state.RoundPut(round); err != nil {
		return 0, err
	}
	if err := e.state.LotteryPut(cfg); err != nil {
		return 0, err
	}
	if err := e.state.ParticipationDelete(key, index, player); err != nil {
		return 0, err
	}
	e.emit(ParticipationClaimedEvent(cfg, round, participation, amount))
	return amount, nil
}

// Lottery returns the lottery configuration identified by key.
func (e *Engine) Lottery(key types.Identity) (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Round returns round index of the lottery.
func (e *Engine) Round(key types.Identity, index uint64) (*Round, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	round, err := e.loadRound(key, index)
	if err != nil {
		return nil, err
	}
	return round.Clone(), nil
}

// Participation returns the player's participation in round index.
func (e *Engine) Participation(key types.Identity, index uint64, player types.Identity) (*Participation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	p, err := e.loadParticipation(key, index, player)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// RoundStatus derives the status of round index at the current time.
func (e *Engine) RoundStatus(key types.Identity, index uint64) (RoundStatus, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return 0, err
	}
	round, err := e.loadRound(key, index)
	if err != nil {
		return 0, err
	}
	return Status(cfg, round, e.now()), nil
}

// PreviewPayout reports what ClaimParticipation would pay without mutating
// state. Rounds without a drawn winner preview as zero.
func (e *Engine) PreviewPayout(key types.Identity, index uint64, player types.Identity) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	round, err := e.loadRound(key, index)
	if err != nil {
		return 0, err
	}
	p, err := e.loadParticipation(key, index, player)
	if err != nil {
		return 0, err
	}
	return Payout(round, p), nil
}

// PotBalance returns the native value held by the lottery escrow.
func (e *Engine) PotBalance(key types.Identity) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	cfg, err := e.loadLottery(key)
	if err != nil {
		return 0, err
	}
	return e.ledger.Balance(cfg.Escrow, bank.NativeMint)
}
