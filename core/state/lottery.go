package state

import (
	"fmt"

	"jungle/core/types"
	"jungle/native/lottery"
)

type storedLottery struct {
	Key           types.Identity
	Owner         types.Identity
	Mint          types.Identity
	Escrow        types.Identity
	Treasury      types.Identity
	Period        uint64
	LastRound     uint64
	LastTimestamp uint64
	UnclaimedPot  uint64
}

type storedRound struct {
	Lottery   types.Identity
	Index     uint64
	Start     uint64
	Spendings []uint64
	Pot       uint64
	Winner    uint8
}

type storedParticipation struct {
	Lottery   types.Identity
	Index     uint64
	Player    types.Identity
	Spendings []uint64
}

func spendingsToStored(s lottery.Spendings) []uint64 {
	out := make([]uint64, len(s))
	copy(out, s[:])
	return out
}

func spendingsFromStored(values []uint64) (lottery.Spendings, error) {
	var s lottery.Spendings
	if len(values) != len(s) {
		return s, fmt.Errorf("state: spendings must have %d entries (got %d)", len(s), len(values))
	}
	copy(s[:], values)
	return s, nil
}

// LotteryGet loads the lottery configuration identified by key.
func (m *Manager) LotteryGet(key types.Identity) (*lottery.Config, bool, error) {
	var stored storedLottery
	ok, err := m.KVGet(LotteryConfigKey(key), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &lottery.Config{
		Key:           stored.Key,
		Owner:         stored.Owner,
		Mint:          stored.Mint,
		Escrow:        stored.Escrow,
		Treasury:      stored.Treasury,
		Period:        stored.Period,
		LastRound:     stored.LastRound,
		LastTimestamp: int64(stored.LastTimestamp),
		UnclaimedPot:  stored.UnclaimedPot,
	}, true, nil
}

// LotteryPut persists a lottery configuration.
func (m *Manager) LotteryPut(cfg *lottery.Config) error {
	if cfg == nil {
		return fmt.Errorf("state: nil lottery config")
	}
	return m.KVPut(LotteryConfigKey(cfg.Key), &storedLottery{
		Key:           cfg.Key,
		Owner:         cfg.Owner,
		Mint:          cfg.Mint,
		Escrow:        cfg.Escrow,
		Treasury:      cfg.Treasury,
		Period:        cfg.Period,
		LastRound:     cfg.LastRound,
		LastTimestamp: uint64(cfg.LastTimestamp),
		UnclaimedPot:  cfg.UnclaimedPot,
	})
}

// RoundGet loads round index of the lottery.
func (m *Manager) RoundGet(key types.Identity, index uint64) (*lottery.Round, bool, error) {
	var stored storedRound
	ok, err := m.KVGet(LotteryRoundKey(key, index), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	spendings, err := spendingsFromStored(stored.Spendings)
	if err != nil {
		return nil, false, err
	}
	return &lottery.Round{
		Lottery:   stored.Lottery,
		Index:     stored.Index,
		Start:     int64(stored.Start),
		Spendings: spendings,
		Pot:       stored.Pot,
		Winner:    stored.Winner,
	}, true, nil
}

// RoundPut persists a lottery round.
func (m *Manager) RoundPut(round *lottery.Round) error {
	if round == nil {
		return fmt.Errorf("state: nil lottery round")
	}
	return m.KVPut(LotteryRoundKey(round.Lottery, round.Index), &storedRound{
		Lottery:   round.Lottery,
		Index:     round.Index,
		Start:     uint64(round.Start),
		Spendings: spendingsToStored(round.Spendings),
		Pot:       round.Pot,
		Winner:    round.Winner,
	})
}

// ParticipationGet loads a player's participation in round index.
func (m *Manager) ParticipationGet(key types.Identity, index uint64, player types.Identity) (*lottery.Participation, bool, error) {
	var stored storedParticipation
	ok, err := m.KVGet(LotteryParticipationKey(key, index, player), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	spendings, err := spendingsFromStored(stored.Spendings)
	if err != nil {
		return nil, false, err
	}
	return &lottery.Participation{
		Lottery:   stored.Lottery,
		Index:     stored.Index,
		Player:    stored.Player,
		Spendings: spendings,
	}, true, nil
}

// ParticipationPut persists a participation.
func (m *Manager) ParticipationPut(p *lottery.Participation) error {
	if p == nil {
		return fmt.Errorf("state: nil participation")
	}
	return m.KVPut(LotteryParticipationKey(p.Lottery, p.Index, p.Player), &storedParticipation{
		Lottery:   p.Lottery,
		Index:     p.Index,
		Player:    p.Player,
		Spendings: spendingsToStored(p.Spendings),
	})
}

// ParticipationDelete removes a participation.
func (m *Manager) ParticipationDelete(key types.Identity, index uint64, player types.Identity) error {
	return m.KVDelete(LotteryParticipationKey(key, index, player))
}
