package state

import "math/big"

func balanceKey(addr [20]byte) []byte {
	return prefixedKey(balancePrefix, addr[:])
}

// BalanceGet returns the value balance held by addr, zero when unknown.
func (m *Manager) BalanceGet(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	if _, err := m.KVGet(balanceKey(addr), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// BalancePut stores the value balance held by addr.
func (m *Manager) BalancePut(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.KVPut(balanceKey(addr), amount)
}
