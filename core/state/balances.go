package state

import "jungle/core/types"

// BalanceGet returns the amount of mint held by holder. Missing balances read as zero.
func (m *Manager) BalanceGet(holder, mint types.Identity) (uint64, error) {
	var amount uint64
	if _, err := m.KVGet(BalanceKey(holder, mint), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// BalancePut stores the amount of mint held by holder. Zero balances are removed.
func (m *Manager) BalancePut(holder, mint types.Identity, amount uint64) error {
	key := BalanceKey(holder, mint)
	if amount == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, amount)
}
