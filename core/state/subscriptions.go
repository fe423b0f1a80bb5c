package state

import (
	"math/big"

	"streamledger/native/subscription"
)

func tierKey(creator [20]byte, id uint64) []byte {
	return prefixedKey(tierPrefix, creator[:], u64(id))
}

func subscriptionKey(subscriber, creator [20]byte) []byte {
	return prefixedKey(subscriptionPrefix, subscriber[:], creator[:])
}

// TierGet loads the tier keyed by (creator, id).
func (m *Manager) TierGet(creator [20]byte, id uint64) (*subscription.Tier, bool, error) {
	tier := new(subscription.Tier)
	ok, err := m.KVGet(tierKey(creator, id), tier)
	if err != nil || !ok {
		return nil, ok, err
	}
	if tier.Price == nil {
		tier.Price = big.NewInt(0)
	}
	return tier, true, nil
}

// TierPut persists the tier.
func (m *Manager) TierPut(tier *subscription.Tier) error {
	if tier == nil {
		return errNilRecord
	}
	return m.KVPut(tierKey(tier.Creator, tier.ID), tier)
}

// SubscriptionGet loads the subscription for (subscriber, creator).
func (m *Manager) SubscriptionGet(subscriber, creator [20]byte) (*subscription.Subscription, bool, error) {
	sub := new(subscription.Subscription)
	ok, err := m.KVGet(subscriptionKey(subscriber, creator), sub)
	if err != nil || !ok {
		return nil, ok, err
	}
	if sub.AmountPaid == nil {
		sub.AmountPaid = big.NewInt(0)
	}
	return sub, true, nil
}

// SubscriptionPut persists the subscription, replacing any previous record
// for the same pair.
func (m *Manager) SubscriptionPut(sub *subscription.Subscription) error {
	if sub == nil {
		return errNilRecord
	}
	return m.KVPut(subscriptionKey(sub.Subscriber, sub.Creator), sub)
}
