package jungle

import (
	"time"

	"jungle/core/events"
	"jungle/core/types"
	"jungle/crypto"
)

type engineState interface {
	JungleGet(key types.Identity) (*Config, bool, error)
	JunglePut(cfg *Config) error
	AnimalGet(mint types.Identity) (*Animal, bool, error)
	AnimalPut(animal *Animal) error
	AnimalDelete(mint types.Identity) error
}

type ledger interface {
	Balance(holder, mint types.Identity) (uint64, error)
	Transfer(from, to, mint types.Identity, amount uint64) error
}

// Engine implements the staking registry: it owns Config and Animal records
// and keeps Config.AnimalsStaked equal to the number of live animals.
type Engine struct {
	state   engineState
	ledger  ledger
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a jungle engine with a no-op emitter and the wall clock.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the ledger used to move assets and rewards.
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

func validateParams(p Params) error {
	if p.MaximumRarityMultiplier < BasisPoints {
		return ErrInvalidMultiplier
	}
	if p.MaximumRarity == 0 {
		return errInvalidRarity
	}
	return nil
}

func (e *Engine) loadJungle(key types.Identity) (*Config, error) {
	cfg, ok, err := e.state.JungleGet(key)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, errJungleNotFound
	}
	return cfg, nil
}

func (e *Engine) loadAnimal(mint types.Identity) (*Animal, error) {
	animal, ok, err := e.state.AnimalGet(mint)
	if err != nil {
		return nil, err
	}
	if !ok || animal == nil {
		return nil, errAnimalNotFound
	}
	return animal, nil
}

// Initialize creates the jungle identified by key. The escrow and rewards
// holders are derived from the key and the reward mint.
func (e *Engine) Initialize(owner, key, mint types.Identity, params Params) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if _, ok, err := e.state.JungleGet(key); err != nil {
		return nil, err
	} else if ok {
		return nil, errJungleExists
	}
	cfg := &Config{
		Key:            key,
		Owner:          owner,
		Escrow:         crypto.EscrowIdentity(key),
		Mint:           mint,
		RewardsAccount: crypto.RewardsIdentity(key, mint),
	}
	cfg.apply(params)
	if err := e.state.JunglePut(cfg); err != nil {
		return nil, err
	}
	e.emit(JungleInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// SetJungle replaces the reward parameters and hands ownership to newOwner.
// Only the current owner may call it.
func (e *Engine) SetJungle(caller, key, newOwner types.Identity, params Params) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != caller {
		return nil, ErrUnauthorized
	}
	cfg.Owner = newOwner
	cfg.apply(params)
	if err := e.state.JunglePut(cfg); err != nil {
		return nil, err
	}
	e.emit(JungleUpdatedEvent(cfg))
	return cfg.Clone(), nil
}

// FundRewards moves amount reward tokens from funder into the reward pool.
func (e *Engine) FundRewards(funder, key types.Identity, amount uint64) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(funder, cfg.RewardsAccount, cfg.Mint, amount); err != nil {
		return nil, err
	}
	e.emit(RewardsFundedEvent(cfg, funder, amount))
	return cfg.Clone(), nil
}

// WithdrawRewards moves amount reward tokens from the reward pool to the owner.
func (e *Engine) WithdrawRewards(caller, key types.Identity, amount uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return err
	}
	if cfg.Owner != caller {
		return ErrUnauthorized
	}
	if err := e.ledger.Transfer(cfg.RewardsAccount, cfg.Owner, cfg.Mint, amount); err != nil {
		return err
	}
	e.emit(RewardsWithdrawnEvent(cfg, amount))
	return nil
}

// StakeAnimal authenticates (asset, rarity, faction) against the jungle
// allow-list, takes custody of one unit of the asset and opens its staking
// record with LastClaim set to now.
func (e *Engine) StakeAnimal(staker, key, asset types.Identity, proof [][32]byte, rarity, faction uint64) (*Animal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now < cfg.Start {
		return nil, ErrTooEarly
	}
	leaf := crypto.AllowListLeaf(asset, rarity, faction)
	if !crypto.VerifyMerkleProof(proof, cfg.Root, leaf) {
		return nil, ErrInvalidProof
	}
	if faction > uint64(MaxFaction) {
		return nil, errInvalidFaction
	}
	if _, ok, err := e.state.AnimalGet(asset); err != nil {
		return nil, err
	} else if ok {
		return nil, errAnimalStaked
	}

	if err := e.ledger.Transfer(staker, cfg.Escrow, asset, 1); err != nil {
		return nil, err
	}
	cfg.AnimalsStaked++
	animal := &Animal{
		Jungle:    cfg.Key,
		Mint:      asset,
		Staker:    staker,
		Rarity:    rarity,
		Faction:   Faction(faction),
		LastClaim: now,
	}
	if err := e.state.AnimalPut(animal); err != nil {
		return nil, err
	}
	if err := e.state.JunglePut(cfg); err != nil {
		return nil, err
	}
	e.emit(AnimalStakedEvent(cfg, animal))
	return animal.Clone(), nil
}

// ClaimStaking pays the reward accrued since the last claim out of the
// reward pool and resets the accrual clock.
func (e *Engine) ClaimStaking(staker, asset types.Identity) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	animal, err := e.loadAnimal(asset)
	if err != nil {
		return 0, err
	}
	if animal.Staker != staker {
		return 0, ErrUnauthorized
	}
	cfg, err := e.loadJungle(animal.Jungle)
	if err != nil {
		return 0, err
	}
	now := e.now()
	amount, err := ComputeReward(cfg, animal, now)
	if err != nil {
		return 0, err
	}
	animal.LastClaim = now
	if err := e.state.AnimalPut(animal); err != nil {
		return 0, err
	}
	if err := e.ledger.Transfer(cfg.RewardsAccount, animal.Staker, cfg.Mint, amount); err != nil {
		return 0, err
	}
	e.emit(RewardsClaimedEvent(cfg, animal, amount))
	return amount, nil
}

// UnstakeAnimal returns the asset to its staker and destroys the record.
// Rewards accrued since the last claim are forfeited.
func (e *Engine) UnstakeAnimal(staker, asset types.Identity) error {
	if err := e.ready(); err != nil {
		return err
	}
	animal, err := e.loadAnimal(asset)
	if err != nil {
		return err
	}
	if animal.Staker != staker {
		return ErrUnauthorized
	}
	cfg, err := e.loadJungle(animal.Jungle)
	if err != nil {
		return err
	}
	if cfg.AnimalsStaked == 0 {
		return errStakedCountUnderrun
	}
	cfg.AnimalsStaked--
	if err := e.state.JunglePut(cfg); err != nil {
		return err
	}
	if err := e.ledger.Transfer(cfg.Escrow, animal.Staker, animal.Mint, 1); err != nil {
		return err
	}
	if err := e.state.AnimalDelete(asset); err != nil {
		return err
	}
	e.emit(AnimalUnstakedEvent(cfg, animal))
	return nil
}

// Jungle returns the jungle configuration identified by key.
func (e *Engine) Jungle(key types.Identity) (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Animal returns the staking record of asset.
func (e *Engine) Animal(asset types.Identity) (*Animal, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	animal, err := e.loadAnimal(asset)
	if err != nil {
		return nil, err
	}
	return animal.Clone(), nil
}

// PendingReward reports what ClaimStaking would pay right now without
// mutating state.
func (e *Engine) PendingReward(asset types.Identity) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	animal, err := e.loadAnimal(asset)
	if err != nil {
		return 0, err
	}
	cfg, err := e.loadJungle(animal.Jungle)
	if err != nil {
		return 0, err
	}
	return ComputeReward(cfg, animal, e.now())
}

// RewardPoolBalance returns the reward tokens left in the pool of key.
func (e *Engine) RewardPoolBalance(key types.Identity) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	cfg, err := e.loadJungle(key)
	if err != nil {
		return 0, err
	}
	return e.ledger.Balance(cfg.RewardsAccount, cfg.Mint)
}
