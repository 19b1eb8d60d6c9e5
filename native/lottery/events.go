package lottery

import (
	"strconv"
	"strings"

	"jungle/core/types"
)

const (
	// EventTypeLotteryInitialized is emitted when a lottery and its first round are created.
	EventTypeLotteryInitialized = "lottery.initialized"
	// EventTypeLotteryUpdated is emitted when the owner overwrites the lottery config.
	EventTypeLotteryUpdated = "lottery.updated"
	// EventTypePotFunded is emitted when native value is deposited into the escrow.
	EventTypePotFunded = "lottery.pot.funded"
	// EventTypeRoundStarted is emitted at rollover, after the previous winner is drawn.
	EventTypeRoundStarted = "lottery.round.started"
	// EventTypeParticipationUpdated is emitted when a player adds tickets to a round.
	EventTypeParticipationUpdated = "lottery.participation.updated"
	// EventTypeParticipationClaimed is emitted when a participation is settled and removed.
	EventTypeParticipationClaimed = "lottery.participation.claimed"
)

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatSpendings(s Spendings) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = formatUint(v)
	}
	return strings.Join(parts, ",")
}

// LotteryInitializedEvent describes a newly created lottery.
func LotteryInitializedEvent(cfg *Config) *types.Event {
	return types.NewEvent(EventTypeLotteryInitialized).
		With("lottery", cfg.Key.String()).
		With("owner", cfg.Owner.String()).
		With("mint", cfg.Mint.String()).
		With("treasury", cfg.Treasury.String()).
		With("period", formatUint(cfg.Period)).
		With("start", strconv.FormatInt(cfg.LastTimestamp, 10))
}

// LotteryUpdatedEvent describes an owner update.
func LotteryUpdatedEvent(cfg *Config) *types.Event {
	return types.NewEvent(EventTypeLotteryUpdated).
		With("lottery", cfg.Key.String()).
		With("owner", cfg.Owner.String()).
		With("mint", cfg.Mint.String()).
		With("treasury", cfg.Treasury.String()).
		With("period", formatUint(cfg.Period)).
		With("lastTimestamp", strconv.FormatInt(cfg.LastTimestamp, 10))
}

// PotFundedEvent describes a deposit into the lottery escrow.
func PotFundedEvent(cfg *Config, funder types.Identity, amount uint64) *types.Event {
	return types.NewEvent(EventTypePotFunded).
		With("lottery", cfg.Key.String()).
		With("funder", funder.String()).
		With("amount", formatUint(amount))
}

// RoundStartedEvent describes a rollover from previous to next.
func RoundStartedEvent(cfg *Config, previous, next *Round) *types.Event {
	return types.NewEvent(EventTypeRoundStarted).
		With("lottery", cfg.Key.String()).
		With("previousRound", formatUint(previous.Index)).
		With("winner", strconv.Itoa(int(previous.Winner))).
		With("round", formatUint(next.Index)).
		With("start", strconv.FormatInt(next.Start, 10)).
		With("pot", formatUint(next.Pot)).
		With("unclaimedPot", formatUint(cfg.UnclaimedPot))
}

// ParticipationUpdatedEvent describes a contribution.
func ParticipationUpdatedEvent(cfg *Config, p *Participation, added Spendings) *types.Event {
	return types.NewEvent(EventTypeParticipationUpdated).
		With("lottery", cfg.Key.String()).
		With("round", formatUint(p.Index)).
		With("player", p.Player.String()).
		With("added", formatSpendings(added)).
		With("spendings", formatSpendings(p.Spendings))
}

// ParticipationClaimedEvent describes a settled participation.
func ParticipationClaimedEvent(cfg *Config, round *Round, p *Participation, amount uint64) *types.Event {
	return types.NewEvent(EventTypeParticipationClaimed).
		With("lottery", cfg.Key.String()).
		With("round", formatUint(round.Index)).
		With("player", p.Player.String()).
		With("winner", strconv.Itoa(int(round.Winner))).
		With("amount", formatUint(amount))
}
