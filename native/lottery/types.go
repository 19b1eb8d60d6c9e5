package lottery

import (
	"fmt"
	"math"

	"jungle/core/types"
)

// FactionCount is the number of factions a ticket can be spent on.
const FactionCount = 8

// Spendings holds one cumulative ticket amount per faction. Index f stores
// the amount spent on faction f+1.
type Spendings [FactionCount]uint64

// Total returns the sum of all entries and false when it does not fit in 64 bits.
func (s Spendings) Total() (uint64, bool) {
	var total uint64
	for _, v := range s {
		next := total + v
		if next < total {
			return 0, false
		}
		total = next
	}
	return total, true
}

// Config is the global state of one lottery instance.
type Config struct {
	Key           types.Identity `json:"key"`
	Owner         types.Identity `json:"owner"`
	Mint          types.Identity `json:"mint"`
	Escrow        types.Identity `json:"escrow"`
	Treasury      types.Identity `json:"treasury"`
	Period        uint64         `json:"period"`
	LastRound     uint64         `json:"lastRound"`
	LastTimestamp int64          `json:"lastTimestamp"`
	// Native value in escrow not yet proven distributed.
	UnclaimedPot uint64 `json:"unclaimedPot"`
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Round is a single lottery round. Winner stays zero until the round is
// superseded by the next one.
type Round struct {
	Lottery   types.Identity `json:"lottery"`
	Index     uint64         `json:"index"`
	Start     int64          `json:"start"`
	Spendings Spendings      `json:"spendings"`
	Pot       uint64         `json:"pot"`
	Winner    uint8          `json:"winner"`
}

// Clone returns a copy of the round.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Participation records what a player spent in a round.
type Participation struct {
	Lottery   types.Identity `json:"lottery"`
	Index     uint64         `json:"index"`
	Player    types.Identity `json:"player"`
	Spendings Spendings      `json:"spendings"`
}

// Clone returns a copy of the participation.
func (p *Participation) Clone() *Participation {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// RoundStatus is derived from the clock and the lottery config. It is never stored.
type RoundStatus uint8

const (
	RoundStatusOpen RoundStatus = iota
	RoundStatusAwaitingRollover
	RoundStatusFinalized
)

func (s RoundStatus) String() string {
	switch s {
	case RoundStatusOpen:
		return "open"
	case RoundStatusAwaitingRollover:
		return "awaiting_rollover"
	case RoundStatusFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText renders the status name.
func (s RoundStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *RoundStatus) UnmarshalText(text []byte) error {
	for _, candidate := range []RoundStatus{RoundStatusOpen, RoundStatusAwaitingRollover, RoundStatusFinalized} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown round status %q", text)
}

// RoundEnd returns start+period, or false when the sum does not fit in an
// int64.
func RoundEnd(start int64, period uint64) (int64, bool) {
	if period > math.MaxInt64 || start > math.MaxInt64-int64(period) {
		return 0, false
	}
	return start + int64(period), true
}

// Status derives the state of round at now. A window ending past the int64
// range stays open.
func Status(cfg *Config, round *Round, now int64) RoundStatus {
	if round.Index < cfg.LastRound {
		return RoundStatusFinalized
	}
	end, ok := RoundEnd(round.Start, cfg.Period)
	if !ok || now <= end {
		return RoundStatusOpen
	}
	return RoundStatusAwaitingRollover
}

// DrawWinner derives the winning faction (1-8) from a unix timestamp.
// The draw is predictable by anyone who can estimate the rollover time.
func DrawWinner(now int64) uint8 {
	m := now % FactionCount
	if m < 0 {
		m += FactionCount
	}
	return uint8(m) + 1
}

// Payout returns what participation is owed from round: the pot share of the
// winning faction weighted by the player's spending, capped at the
// remaining pot. Undrawn rounds and empty winning factions pay nothing.
func Payout(round *Round, participation *Participation) uint64 {
	if round.Winner == 0 || round.Winner > FactionCount {
		return 0
	}
	idx := round.Winner - 1
	total := round.Spendings[idx]
	if total == 0 {
		return 0
	}
	amount := mulDiv(round.Pot, participation.Spendings[idx], total)
	if amount > round.Pot {
		amount = round.Pot
	}
	return amount
}
