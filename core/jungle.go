package core

import (
	"jungle/core/types"
	"jungle/native/jungle"
)

// InitJungle creates a staking program owned by owner that pays rewards in mint.
func (n *Node) InitJungle(owner, key, mint types.Identity, params jungle.Params) (*jungle.Config, error) {
	var cfg *jungle.Config
	err := n.apply("init_jungle", func(s *session) error {
		var err error
		cfg, err = s.jungle.Initialize(owner, key, mint, params)
		if err == nil {
			s.observeJungle(key)
		}
		return err
	})
	return cfg, err
}

// SetJungle overwrites the reward parameters and owner of a jungle.
func (n *Node) SetJungle(caller, key, newOwner types.Identity, params jungle.Params) (*jungle.Config, error) {
	var cfg *jungle.Config
	err := n.apply("set_jungle", func(s *session) error {
		var err error
		cfg, err = s.jungle.SetJungle(caller, key, newOwner, params)
		return err
	})
	return cfg, err
}

// FundRewards moves reward tokens from funder into the jungle reward pool.
func (n *Node) FundRewards(funder, key types.Identity, amount uint64) error {
	return n.apply("fund_rewards", func(s *session) error {
		_, err := s.jungle.FundRewards(funder, key, amount)
		return err
	})
}

// WithdrawRewards moves reward tokens out of the pool to the jungle owner.
func (n *Node) WithdrawRewards(caller, key types.Identity, amount uint64) error {
	return n.apply("withdraw_rewards", func(s *session) error {
		return s.jungle.WithdrawRewards(caller, key, amount)
	})
}

// StakeAnimal stakes asset into jungle key after checking its allow-list proof.
func (n *Node) StakeAnimal(staker, key, asset types.Identity, proof [][32]byte, rarity, faction uint64) (*jungle.Animal, error) {
	var animal *jungle.Animal
	err := n.apply("stake_animal", func(s *session) error {
		var err error
		animal, err = s.jungle.StakeAnimal(staker, key, asset, proof, rarity, faction)
		if err == nil {
			s.observeJungle(key)
		}
		return err
	})
	return animal, err
}

// ClaimStaking pays out the reward accrued by asset since its last claim.
func (n *Node) ClaimStaking(staker, asset types.Identity) (uint64, error) {
	var amount uint64
	err := n.apply("claim_staking", func(s *session) error {
		var err error
		amount, err = s.jungle.ClaimStaking(staker, asset)
		return err
	})
	return amount, err
}

// UnstakeAnimal returns asset to its staker. Unclaimed rewards are forfeited.
func (n *Node) UnstakeAnimal(staker, asset types.Identity) error {
	return n.apply("unstake_animal", func(s *session) error {
		animal, err := s.jungle.Animal(asset)
		if err != nil {
			return err
		}
		if err := s.jungle.UnstakeAnimal(staker, asset); err != nil {
			return err
		}
		s.observeJungle(animal.Jungle)
		return nil
	})
}

// Jungle returns the configuration of jungle key.
func (n *Node) Jungle(key types.Identity) (*jungle.Config, error) {
	var cfg *jungle.Config
	err := n.view(func(s *session) error {
		var err error
		cfg, err = s.jungle.Jungle(key)
		return err
	})
	return cfg, err
}

// Animal returns the staking record of asset.
func (n *Node) Animal(asset types.Identity) (*jungle.Animal, error) {
	var animal *jungle.Animal
	err := n.view(func(s *session) error {
		var err error
		animal, err = s.jungle.Animal(asset)
		return err
	})
	return animal, err
}

// PendingReward returns what ClaimStaking would pay for asset right now.
func (n *Node) PendingReward(asset types.Identity) (amount uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			amount, err = 0, ErrContractBreach
		}
	}()
	err = n.view(func(s *session) error {
		var err error
		amount, err = s.jungle.PendingReward(asset)
		return err
	})
	return amount, err
}

// RewardPoolBalance returns the reward tokens left in the pool of jungle key.
func (n *Node) RewardPoolBalance(key types.Identity) (uint64, error) {
	var amount uint64
	err := n.view(func(s *session) error {
		var err error
		amount, err = s.jungle.RewardPoolBalance(key)
		return err
	})
	return amount, err
}
