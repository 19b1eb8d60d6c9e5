package core

import "jungle/core/types"

// Mint credits holder with amount units of mint. Devnets and tests use it to
// airdrop assets, reward tokens and native value.
func (n *Node) Mint(to, mint types.Identity, amount uint64) error {
	return n.apply("mint", func(s *session) error {
		return s.ledger.Mint(to, mint, amount)
	})
}

// Transfer moves amount units of mint between two holders.
func (n *Node) Transfer(from, to, mint types.Identity, amount uint64) error {
	return n.apply("transfer", func(s *session) error {
		return s.ledger.Transfer(from, to, mint, amount)
	})
}

// Balance returns the amount of mint held by holder.
func (n *Node) Balance(holder, mint types.Identity) (uint64, error) {
	var amount uint64
	err := n.view(func(s *session) error {
		var err error
		amount, err = s.ledger.Balance(holder, mint)
		return err
	})
	return amount, err
}
