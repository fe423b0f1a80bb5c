package challenge

import "math/big"

// Challenge is a funding goal attached to a stream.
type Challenge struct {
	StreamID    uint64   `json:"streamId"`
	ID          uint64   `json:"id"`
	Creator     [20]byte `json:"creator"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Goal        *big.Int `json:"goal"`
	Current     *big.Int `json:"current"`
	Completed   bool     `json:"completed"`
	ExpiresAt   uint64   `json:"expiresAt"`
}

// Clone returns a deep copy of the challenge.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Goal = copyAmount(c.Goal)
	clone.Current = copyAmount(c.Current)
	return &clone
}

// Contribution accumulates everything one account gave to a challenge.
type Contribution struct {
	StreamID      uint64   `json:"streamId"`
	ChallengeID   uint64   `json:"challengeId"`
	Contributor   [20]byte `json:"contributor"`
	Amount        *big.Int `json:"amount"`
	ContributedAt uint64   `json:"contributedAt"`
}

// Clone returns a deep copy of the contribution.
func (c *Contribution) Clone() *Contribution {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Amount = copyAmount(c.Amount)
	return &clone
}

func copyAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
