package state

import (
	"math/big"

	"streamledger/native/creator"
)

func creatorAccountKey(addr [20]byte) []byte {
	return prefixedKey(creatorAccountPrefix, addr[:])
}

// CreatorAccountGet loads the registered creator profile for addr.
func (m *Manager) CreatorAccountGet(addr [20]byte) (*creator.Account, bool, error) {
	account := new(creator.Account)
	ok, err := m.KVGet(creatorAccountKey(addr), account)
	if err != nil || !ok {
		return nil, ok, err
	}
	if account.TotalEarnings == nil {
		account.TotalEarnings = big.NewInt(0)
	}
	return account, true, nil
}

// CreatorAccountPut persists the creator profile.
func (m *Manager) CreatorAccountPut(account *creator.Account) error {
	if account == nil {
		return errNilRecord
	}
	return m.KVPut(creatorAccountKey(account.Address), account)
}
