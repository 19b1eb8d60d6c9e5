package core

import (
	"jungle/core/types"
	"jungle/native/lottery"
)

// InitLottery creates a lottery and its round 0 opening at start.
func (n *Node) InitLottery(owner, key, mint, treasury types.Identity, period uint64, start int64) (*lottery.Config, error) {
	var cfg *lottery.Config
	err := n.apply("init_lottery", func(s *session) error {
		var err error
		cfg, err = s.lottery.Initialize(owner, key, mint, treasury, period, start)
		if err == nil {
			s.observeLottery(key)
		}
		return err
	})
	return cfg, err
}

// SetLottery overwrites the owner-controlled fields of a lottery.
func (n *Node) SetLottery(caller, key, newOwner, mint, treasury types.Identity, period uint64, start int64) (*lottery.Config, error) {
	var cfg *lottery.Config
	err := n.apply("set_lottery", func(s *session) error {
		var err error
		cfg, err = s.lottery.SetLottery(caller, key, newOwner, mint, treasury, period, start)
		return err
	})
	return cfg, err
}

// FundPot deposits native value into the lottery escrow.
func (n *Node) FundPot(funder, key types.Identity, amount uint64) error {
	return n.apply("fund_pot", func(s *session) error {
		_, err := s.lottery.FundPot(funder, key, amount)
		return err
	})
}

// Participate spends tickets on factions of round index.
func (n *Node) Participate(player, key types.Identity, index uint64, spendings lottery.Spendings) (*lottery.Participation, error) {
	var p *lottery.Participation
	err := n.apply("participate", func(s *session) error {
		var err error
		p, err = s.lottery.Participate(player, key, index, spendings)
		return err
	})
	return p, err
}

// UpdateParticipation tops up an existing participation.
func (n *Node) UpdateParticipation(player, key types.Identity, index uint64, spendings lottery.Spendings) (*lottery.Participation, error) {
	var p *lottery.Participation
	err := n.apply("update_participation", func(s *session) error {
		var err error
		p, err = s.lottery.UpdateParticipation(player, key, index, spendings)
		return err
	})
	return p, err
}

// NewLotteryRound draws the current round's winner and opens the next round.
func (n *Node) NewLotteryRound(key types.Identity) (*lottery.Round, error) {
	var round *lottery.Round
	err := n.apply("new_lottery_round", func(s *session) error {
		var err error
		round, err = s.lottery.NewLotteryRound(key)
		if err == nil {
			s.observeLottery(key)
		}
		return err
	})
	return round, err
}

// ClaimParticipation settles the player's participation in round index.
func (n *Node) ClaimParticipation(player, key types.Identity, index uint64) (uint64, error) {
	var amount uint64
	err := n.apply("claim_participation", func(s *session) error {
		var err error
		amount, err = s.lottery.ClaimParticipation(player, key, index)
		if err == nil {
			s.observeLottery(key)
		}
		return err
	})
	return amount, err
}

// Lottery returns the configuration of lottery key.
func (n *Node) Lottery(key types.Identity) (*lottery.Config, error) {
	var cfg *lottery.Config
	err := n.view(func(s *session) error {
		var err error
		cfg, err = s.lottery.Lottery(key)
		return err
	})
	return cfg, err
}

// Round returns round index of lottery key.
func (n *Node) Round(key types.Identity, index uint64) (*lottery.Round, error) {
	var round *lottery.Round
	err := n.view(func(s *session) error {
		var err error
		round, err = s.lottery.Round(key, index)
		return err
	})
	return round, err
}

// Participation returns the player's participation in round index.
func (n *Node) Participation(key types.Identity, index uint64, player types.Identity) (*lottery.Participation, error) {
	var p *lottery.Participation
	err := n.view(func(s *session) error {
		var err error
		p, err = s.lottery.Participation(key, index, player)
		return err
	})
	return p, err
}

// RoundStatus derives the status of round index at the node clock.
func (n *Node) RoundStatus(key types.Identity, index uint64) (lottery.RoundStatus, error) {
	var status lottery.RoundStatus
	err := n.view(func(s *session) error {
		var err error
		status, err = s.lottery.RoundStatus(key, index)
		return err
	})
	return status, err
}

// PreviewPayout reports what ClaimParticipation would pay.
func (n *Node) PreviewPayout(key types.Identity, index uint64, player types.Identity) (uint64, error) {
	var amount uint64
	err := n.view(func(s *session) error {
		var err error
		amount, err = s.lottery.PreviewPayout(key, index, player)
		return err
	})
	return amount, err
}

// PotBalance returns the native value held by the lottery escrow.
func (n *Node) PotBalance(key types.Identity) (uint64, error) {
	var amount uint64
	err := n.view(func(s *session) error {
		var err error
		amount, err = s.lottery.PotBalance(key)
		return err
	})
	return amount, err
}
