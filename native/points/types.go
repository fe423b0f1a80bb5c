package points

import "math/big"

// Engagement accumulates watch time, points and tips for one (stream, viewer)
// pair.
type Engagement struct {
	StreamID        uint64   `json:"streamId"`
	Viewer          [20]byte `json:"viewer"`
	WatchMinutes    uint64   `json:"watchMinutes"`
	PointsEarned    uint64   `json:"pointsEarned"`
	LastInteraction uint64   `json:"lastInteraction"`
	TippedAmount    *big.Int `json:"tippedAmount"`
}

// Clone returns a deep copy of the engagement record.
func (e *Engagement) Clone() *Engagement {
	if e == nil {
		return nil
	}
	clone := *e
	if e.TippedAmount != nil {
		clone.TippedAmount = new(big.Int).Set(e.TippedAmount)
	} else {
		clone.TippedAmount = big.NewInt(0)
	}
	return &clone
}

// Account is the points balance of one user. Available always equals
// TotalEarned minus Redeemed.
type Account struct {
	Address     [20]byte `json:"address"`
	TotalEarned uint64   `json:"totalEarned"`
	Redeemed    uint64   `json:"redeemed"`
	Available   uint64   `json:"available"`
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// Params controls the fixed-point conversion rates.
type Params struct {
	// PointRate is the number of points minted per watched minute.
	PointRate uint64
	// PointsPerUnit is the number of points redeemed for one unit of value.
	PointsPerUnit uint64
}

// DefaultParams returns the standard conversion rates.
func DefaultParams() Params {
	return Params{PointRate: 10, PointsPerUnit: 100}
}
