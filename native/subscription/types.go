package subscription

import "math/big"

// SecondsPerDay converts tier durations into subscription windows.
const SecondsPerDay uint64 = 86_400

// Tier is a paid subscription plan offered by a creator.
type Tier struct {
	Creator      [20]byte `json:"creator"`
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        *big.Int `json:"price"`
	DurationDays uint64   `json:"durationDays"`
	Benefits     string   `json:"benefits"`
	Active       bool     `json:"active"`
}

// Clone returns a deep copy of the tier.
func (t *Tier) Clone() *Tier {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Price != nil {
		clone.Price = new(big.Int).Set(t.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// Subscription is the grant of a tier to a subscriber. At most one exists per
// (subscriber, creator) pair; subscribing again replaces it.
type Subscription struct {
	Subscriber [20]byte `json:"subscriber"`
	Creator    [20]byte `json:"creator"`
	TierID     uint64   `json:"tierId"`
	StartedAt  uint64   `json:"startedAt"`
	EndsAt     uint64   `json:"endsAt"`
	AmountPaid *big.Int `json:"amountPaid"`
	Active     bool     `json:"active"`
}

// Clone returns a deep copy of the subscription.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	clone := *s
	if s.AmountPaid != nil {
		clone.AmountPaid = new(big.Int).Set(s.AmountPaid)
	} else {
		clone.AmountPaid = big.NewInt(0)
	}
	return &clone
}

// Current reports whether the subscription grants access at the supplied time.
func (s *Subscription) Current(now uint64) bool {
	if s == nil {
		return false
	}
	return s.Active && now < s.EndsAt
}
