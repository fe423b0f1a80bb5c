package creator

import "math/big"

// Account is a registered content-creator profile.
type Account struct {
	Address         [20]byte `json:"address"`
	Name            string   `json:"name"`
	Bio             string   `json:"bio"`
	RegisteredAt    uint64   `json:"registeredAt"`
	TotalStreamTime uint64   `json:"totalStreamTime"`
	TotalEarnings   *big.Int `json:"totalEarnings"`
	Active          bool     `json:"active"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.TotalEarnings != nil {
		clone.TotalEarnings = new(big.Int).Set(a.TotalEarnings)
	} else {
		clone.TotalEarnings = big.NewInt(0)
	}
	return &clone
}
